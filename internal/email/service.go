package email

import (
	"context"
	"fmt"
	"log/slog"

	"contactsapi/internal/config"

	"github.com/wneessen/go-mail"
)

// Service sends messages over SMTP
type Service struct {
	cfg config.EmailConfig
}

// NewService creates an SMTP sender
func NewService(cfg config.EmailConfig) (*Service, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &Service{cfg: cfg}, nil
}

// Send renders msg and delivers it
func (s *Service) Send(ctx context.Context, msg Message) error {
	subject, body, err := Render(msg, s.cfg.AppURL)
	if err != nil {
		return err
	}

	m := mail.NewMsg()
	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else if err := m.From(s.cfg.FromAddress); err != nil {
		return fmt.Errorf("setting from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextHTML, body)

	client, err := mail.NewClient(s.cfg.SMTPHost, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("sending %s email: %w", msg.Template, err)
	}
	return nil
}

func (s *Service) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.SMTPPort),
	}

	if s.cfg.SMTPTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Port 465 is implicit TLS, everything else upgrades with STARTTLS
		if s.cfg.SMTPPort == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.SMTPUsername != "" && s.cfg.SMTPPassword != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.SMTPUsername),
			mail.WithPassword(s.cfg.SMTPPassword),
		)
	}
	return opts
}

// LogSender logs messages instead of sending them. Used when SMTP is not configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email delivery disabled, dropping message",
		"to", msg.To,
		"template", msg.Template,
	)
	return nil
}
