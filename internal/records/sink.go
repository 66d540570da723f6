package records

import (
	"context"
	"time"

	"kalaklub-site/internal/shared/telemetry"
)

// Record is one accepted submission ready to persist.
type Record struct {
	ID        string
	Form      string
	CreatedAt time.Time
	ClientIP  string
	// Row is the flat-file line in column order.
	Row []string
	// Fields holds the sanitized values by name.
	Fields map[string]string
}

// Sink persists records.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}

// FileSink appends the record row to a fixed path.
type FileSink struct {
	Appender *Appender
	Path     string
	// Header is written once when the file is new.
	Header []string
}

// NewFileSink creates a CSV FileSink for path.
func NewFileSink(path string, header []string) *FileSink {
	return &FileSink{Appender: NewAppender(FormatCSV), Path: path, Header: header}
}

func (s *FileSink) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Appender.AppendWithHeader(rec.Row, s.Header, s.Path)
}

// Mirrored writes to Primary and then, best effort, to each mirror.
// Only a Primary failure is returned.
type Mirrored struct {
	Primary Sink
	Mirrors []Sink
}

func (m *Mirrored) Append(ctx context.Context, rec Record) error {
	if err := m.Primary.Append(ctx, rec); err != nil {
		return err
	}
	for _, mirror := range m.Mirrors {
		if mirror == nil {
			continue
		}
		if err := mirror.Append(ctx, rec); err != nil {
			telemetry.Warn("records.mirror_failed", map[string]any{
				"form":          rec.Form,
				"submission_id": rec.ID,
				"error":         err,
			})
		}
	}
	return nil
}
