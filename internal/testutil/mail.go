package testutil

import (
	"context"
	"sync"

	"contactsapi/internal/email"
)

// MailRecorder is an email.Sender that keeps every message
type MailRecorder struct {
	mu       sync.Mutex
	messages []email.Message
}

func (r *MailRecorder) Send(_ context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages
func (r *MailRecorder) Messages() []email.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]email.Message(nil), r.messages...)
}

// Last returns the most recent message sent with template to the address
func (r *MailRecorder) Last(template, to string) (email.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		m := r.messages[i]
		if m.Template == template && m.To == to {
			return m, true
		}
	}
	return email.Message{}, false
}
