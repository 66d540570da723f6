package notify

import (
	"context"
	"sync"

	"kalaklub-site/internal/shared/telemetry"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	telemetry.Info("mail.logged", map[string]any{
		"to":         msg.To,
		"from":       msg.From.Email,
		"reply_to":   msg.ReplyTo,
		"subject":    msg.Subject,
		"body_bytes": len(msg.Body),
	})
	return nil
}

// Outbox records messages in memory. FailFor makes sends to the listed
// recipients return Err.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	FailFor  map[string]bool
	Err      error
}

func (o *Outbox) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailFor[msg.To] {
		return o.Err
	}
	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns a copy of what has been sent.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Message, len(o.messages))
	copy(out, o.messages)
	return out
}
