// Package email delivers account lifecycle notifications.
package email

import (
	"context"
	"fmt"
	"sync"

	"github.com/resend/resend-go/v2"

	"github.com/Karol96S/budgetapp/internal/logger"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages. Implementations must not log message bodies in
// production, they contain raw token URLs.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs emails instead of sending them. Used in development.
type LogSender struct{}

// Send logs the message via the global logger.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	logger.Get().Infow("outbound email (dev mode)",
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// Send delivers the message through Resend.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a ResendSender when an API key is configured and a
// LogSender otherwise.
func NewSender(apiKey, from string) Sender {
	if apiKey == "" {
		return &LogSender{}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// MemorySender records messages in memory for tests.
type MemorySender struct {
	mu       sync.Mutex
	messages []Message
}

// Send records the message.
func (s *MemorySender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of all recorded messages.
func (s *MemorySender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
