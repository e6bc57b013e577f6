// Package mail delivers recurring search results by email.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Sender delivers one message.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTP sends mail through a plain SMTP relay.
type SMTP struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

func (s *SMTP) Send(to, subject, body string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)

	if err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogSender logs messages instead of sending them. Used when no SMTP relay
// is configured.
type LogSender struct {
	Log *slog.Logger
}

func (l *LogSender) Send(to, subject, body string) error {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("mail (dry run)", "to", to, "subject", subject, "bytes", len(body))
	return nil
}
