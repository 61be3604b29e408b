// Package email renders and delivers transactional emails
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

// Template identifiers
const (
	TemplateVerifyEmail   = "verify_email"
	TemplatePasswordReset = "password_reset"
)

// Message is a templated email addressed to one recipient
type Message struct {
	To       string
	Template string
	Params   map[string]string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type emailTemplate struct {
	subject string
	path    string
	body    *template.Template
}

var templates = map[string]emailTemplate{
	TemplateVerifyEmail: {
		subject: "Verify Your Email Address",
		path:    "/api/v1/auth/verify-email",
		body: template.Must(template.New(TemplateVerifyEmail).Parse(`
		<h2>Hello {{.Username}},</h2>
		<p>Please verify your email address by clicking the link below:</p>
		<p><a href="{{.URL}}">Verify Email Address</a></p>
		<p>This link will expire in 24 hours.</p>
		<p>If you did not create an account, no further action is required.</p>
	`)),
	},
	TemplatePasswordReset: {
		subject: "Reset Your Password",
		path:    "/reset-password",
		body: template.Must(template.New(TemplatePasswordReset).Parse(`
		<h2>Hello {{.Username}},</h2>
		<p>You have requested to reset your password. Click the link below to proceed:</p>
		<p><a href="{{.URL}}">Reset Password</a></p>
		<p>This link will expire in 1 hour.</p>
		<p>If you did not request a password reset, please ignore this email.</p>
	`)),
	},
}

// Render returns the subject and HTML body of msg. Links point at appURL.
func Render(msg Message, appURL string) (string, string, error) {
	tmpl, ok := templates[msg.Template]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", msg.Template)
	}

	link := strings.TrimSuffix(appURL, "/") + tmpl.path + "?token=" + url.QueryEscape(msg.Params["token"])

	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, map[string]string{
		"Username": msg.Params["username"],
		"URL":      link,
	}); err != nil {
		return "", "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return tmpl.subject, body.String(), nil
}
