package notify

import (
	"context"
	"fmt"
)

// Route is the per-form addressing.
type Route struct {
	Operator string
	From     Address
}

// Report carries the outcome of each send. Nil means delivered.
type Report struct {
	OperatorErr error
	AckErr      error
}

// Dispatcher sends the operator notification and, when the submitter gave
// an address, the acknowledgment.
type Dispatcher struct {
	Sender   Sender
	Composer *Composer
	Routes   map[string]Route
}

// Notify never retries. submitterEmail is the plain, validated address.
func (d *Dispatcher) Notify(ctx context.Context, data Data, submitterEmail string) Report {
	var rep Report
	route, ok := d.Routes[data.Form]
	if !ok {
		err := fmt.Errorf("no mail route for form %q", data.Form)
		return Report{OperatorErr: err, AckErr: err}
	}
	data.OperatorEmail = route.Operator

	rep.OperatorErr = d.send(ctx, KindOperator, data, Message{
		To:      route.Operator,
		From:    route.From,
		ReplyTo: submitterEmail,
	})
	if submitterEmail != "" {
		rep.AckErr = d.send(ctx, KindAcknowledgment, data, Message{
			To:      submitterEmail,
			From:    route.From,
			ReplyTo: route.Operator,
		})
	}
	return rep
}

func (d *Dispatcher) send(ctx context.Context, kind Kind, data Data, msg Message) error {
	subject, body, err := d.Composer.Render(kind, data)
	if err != nil {
		return err
	}
	msg.Subject = subject
	msg.Body = body
	return d.Sender.Send(ctx, msg)
}
