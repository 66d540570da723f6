package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGSink mirrors records into the submissions table.
type PGSink struct {
	DB *sql.DB
}

func (s *PGSink) Append(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO submissions (id, form, fields, client_ip, created_at)
VALUES ($1, $2, $3, $4, $5)`
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, query, rec.ID, rec.Form, fields, rec.ClientIP, rec.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}
