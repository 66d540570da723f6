package submissions

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"kalaklub-site/internal/shared/server/middleware"
	"kalaklub-site/internal/shared/server/respond"
	"kalaklub-site/internal/shared/telemetry"
)

const defaultMaxFormBytes = 1 << 20

// Handler exposes a Pipeline over HTTP.
type Handler struct {
	Pipeline     *Pipeline
	MaxFormBytes int64
	// OnSuccess writes the response for accepted and spam outcomes.
	OnSuccess func(c *gin.Context, out Outcome)
}

// NewApplicationHandler answers success with a 303 to successURL.
func NewApplicationHandler(p *Pipeline, maxBytes int64, successURL string) *Handler {
	return &Handler{
		Pipeline:     p,
		MaxFormBytes: maxBytes,
		OnSuccess: func(c *gin.Context, _ Outcome) {
			respond.SeeOther(c, successURL)
		},
	}
}

// ContactThanks is the contact form's success message.
const ContactThanks = "Thank you for your message! We'll get back to you within 24 hours."

// NewContactHandler answers success with a JSON thank-you.
func NewContactHandler(p *Pipeline, maxBytes int64) *Handler {
	return &Handler{
		Pipeline:     p,
		MaxFormBytes: maxBytes,
		OnSuccess: func(c *gin.Context, _ Outcome) {
			respond.OK(c, gin.H{"message": ContactThanks})
		},
	}
}

// Submit handles POST of the form.
func (h *Handler) Submit(c *gin.Context) {
	c.Set(middleware.FormKey, h.Pipeline.Form.Name)

	fields, err := h.readFields(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "Submission is too large", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "bad_request", "Could not read the submitted form", nil)
		return
	}

	out, err := h.Pipeline.Process(c.Request.Context(), Request{
		Fields:    fields,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		c.Set(middleware.OutcomeKey, "failed")
		telemetry.Error("submission.failed", map[string]any{
			"form":       h.Pipeline.Form.Name,
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err,
		})
		respond.Error(c, http.StatusInternalServerError, "internal", "Sorry, there was an error processing your submission. Please try again later.", nil)
		return
	}

	c.Set(middleware.OutcomeKey, out.metricLabel())
	if out.SubmissionID != "" {
		c.Set(middleware.SubmissionIDKey, out.SubmissionID)
	}
	if out.Succeeded() {
		h.OnSuccess(c, out)
		return
	}

	status, code := http.StatusUnprocessableEntity, "validation_failed"
	if out.RateLimited {
		status, code = http.StatusTooManyRequests, "rate_limited"
		seconds := int(math.Ceil(out.RetryAfter.Seconds()))
		if seconds <= 0 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
	}
	respond.Error(c, status, code, "Please correct the errors below.", gin.H{
		"fields": out.Errors,
		"values": out.Values,
	})
}

func (h *Handler) readFields(c *gin.Context) (map[string]string, error) {
	limit := h.MaxFormBytes
	if limit <= 0 {
		limit = defaultMaxFormBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		err = c.Request.ParseMultipartForm(limit)
	} else {
		err = c.Request.ParseForm()
	}
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(c.Request.PostForm))
	for name, values := range c.Request.PostForm {
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}
	return fields, nil
}
