// Package submissions runs a posted form through rate limiting, spam
// screening, validation, persistence and notification.
package submissions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kalaklub-site/internal/forms"
	"kalaklub-site/internal/notify"
	"kalaklub-site/internal/ratelimit"
	"kalaklub-site/internal/records"
	"kalaklub-site/internal/shared/metrics"
	"kalaklub-site/internal/shared/telemetry"
)

// GeneralErrorKey carries errors not tied to a field.
const GeneralErrorKey = "general"

// Status is the terminal state of one pipeline run.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusSpam     Status = "spam"
)

// Request is one raw post.
type Request struct {
	Fields    map[string]string
	ClientIP  string
	UserAgent string
}

// Outcome is what the caller needs to answer the visitor.
type Outcome struct {
	Status       Status
	Errors       forms.Result
	Values       forms.Submission
	RateLimited  bool
	RetryAfter   time.Duration
	SubmissionID string
}

// Succeeded reports whether the visitor should see the success response.
// Spam is indistinguishable from acceptance.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusAccepted || o.Status == StatusSpam
}

// Err classifies a non-accepted outcome.
func (o Outcome) Err() error {
	switch {
	case o.Status == StatusSpam:
		return ErrSpamDetected
	case o.RateLimited:
		return ErrRateLimited
	case o.Status == StatusRejected:
		return ErrValidationFailed
	}
	return nil
}

func (o Outcome) metricLabel() string {
	if o.RateLimited {
		return "rate_limited"
	}
	return string(o.Status)
}

// Notifier sends the emails for an accepted submission.
type Notifier interface {
	Notify(ctx context.Context, data notify.Data, submitterEmail string) notify.Report
}

// Pipeline processes submissions for one form.
type Pipeline struct {
	Form     *forms.Form
	Limiter  *ratelimit.Limiter
	Cooldown time.Duration
	// RateLimitMessage is shown under the general key on a rate denial.
	RateLimitMessage string
	Records          records.Sink
	Notifier         Notifier
	Location         *time.Location
	Now              func() time.Time
	NewID            func() string
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

// Process runs one submission. A non-nil error means the submission could
// not be handled at all and nothing was sent.
func (p *Pipeline) Process(ctx context.Context, req Request) (out Outcome, err error) {
	start := time.Now()
	defer func() {
		label := "failed"
		if err == nil {
			label = out.metricLabel()
		}
		metrics.IncSubmission(p.Form.Name, label)
		metrics.ObserveSubmissionDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := ratelimit.Key(p.Form.Name, req.ClientIP)
	decision, err := p.Limiter.Check(ctx, key, p.Cooldown)
	if err != nil {
		return Outcome{}, fmt.Errorf("rate check: %w", err)
	}

	if forms.IsSpam(req.Fields) {
		telemetry.Warn("submission.spam", map[string]any{
			"form":      p.Form.Name,
			"client_ip": req.ClientIP,
		})
		return Outcome{Status: StatusSpam}, nil
	}

	sub := p.Form.Sanitize(req.Fields)
	result := p.Form.Validate(sub)
	if !decision.Allowed {
		result[GeneralErrorKey] = p.RateLimitMessage
	}

	if !result.Accepted() {
		return Outcome{
			Status:      StatusRejected,
			Errors:      result,
			Values:      sub,
			RateLimited: !decision.Allowed,
			RetryAfter:  decision.RetryAfter,
		}, nil
	}

	at := p.now()
	if p.Location != nil {
		at = at.In(p.Location)
	}
	rec := records.Record{
		ID:        p.newID(),
		Form:      p.Form.Name,
		CreatedAt: at,
		ClientIP:  req.ClientIP,
		Row:       p.Form.Row(sub, at, req.ClientIP),
		Fields:    sub,
	}
	if err := p.Records.Append(ctx, rec); err != nil {
		metrics.IncPersistenceFailure(p.Form.Name)
		return Outcome{}, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	p.notify(ctx, rec, sub)

	return Outcome{
		Status:       StatusAccepted,
		Values:       sub,
		SubmissionID: rec.ID,
	}, nil
}

func (p *Pipeline) notify(ctx context.Context, rec records.Record, sub forms.Submission) {
	if p.Notifier == nil {
		return
	}
	plain := make(map[string]string, len(sub))
	for k, v := range sub {
		plain[k] = forms.Plain(v)
	}
	data := notify.Data{
		Form:        p.Form.Name,
		Name:        forms.Plain(p.Form.SubmitterName(sub)),
		Fields:      plain,
		SubmittedAt: rec.CreatedAt,
		ClientIP:    rec.ClientIP,
	}
	rep := p.Notifier.Notify(ctx, data, plain[p.Form.EmailField])
	p.logSendFailure(rec, string(notify.KindOperator), rep.OperatorErr)
	p.logSendFailure(rec, string(notify.KindAcknowledgment), rep.AckErr)
}

func (p *Pipeline) logSendFailure(rec records.Record, kind string, err error) {
	if err == nil {
		return
	}
	metrics.IncNotificationFailure(p.Form.Name, kind)
	telemetry.Error("submission.notify_failed", map[string]any{
		"form":          p.Form.Name,
		"submission_id": rec.ID,
		"kind":          kind,
		"error":         fmt.Errorf("%w: %v", ErrNotificationFailed, err),
	})
}
