package email

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned when the delivery buffer has no room
var ErrQueueFull = errors.New("email queue is full")

// ErrQueueClosed is returned after Close
var ErrQueueClosed = errors.New("email queue is closed")

const sendTimeout = 30 * time.Second

// Queue delivers messages in the background so callers never wait on SMTP
type Queue struct {
	sender Sender
	logger *slog.Logger
	ch     chan Message
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts a worker that forwards queued messages to sender
func NewQueue(sender Sender, size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		sender: sender,
		logger: logger,
		ch:     make(chan Message, size),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) run() {
	defer q.wg.Done()
	for msg := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := q.sender.Send(ctx, msg); err != nil {
			q.logger.Error("failed to deliver email",
				"template", msg.Template,
				"error", err,
			)
		}
		cancel()
	}
}

// Send enqueues msg without blocking
func (q *Queue) Send(_ context.Context, msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to be delivered
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
