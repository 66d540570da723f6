// Package notify renders and sends the plaintext emails that follow an
// accepted submission.
package notify

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidMessage is returned for messages missing a recipient or sender.
var ErrInvalidMessage = errors.New("invalid message")

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// Message is one plaintext email.
type Message struct {
	To      string
	From    Address
	ReplyTo string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations must not retry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" || strings.TrimSpace(m.From.Email) == "" {
		return ErrInvalidMessage
	}
	if strings.ContainsAny(m.To+m.ReplyTo+m.From.Email+m.From.Name, "\r\n") {
		return ErrInvalidMessage
	}
	return nil
}

// headerSafe collapses all whitespace runs, including line breaks, to single spaces.
func headerSafe(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
