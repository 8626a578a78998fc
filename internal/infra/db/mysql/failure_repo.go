package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/resume-scrubber/internal/domain/failures"
)

const maxMessageLen = 1024

const schema = `
CREATE TABLE IF NOT EXISTS processing_failures (
  id          CHAR(36)     NOT NULL PRIMARY KEY,
  request_id  VARCHAR(64)  NOT NULL,
  endpoint    VARCHAR(32)  NOT NULL,
  stage       VARCHAR(32)  NOT NULL,
  category    VARCHAR(32)  NOT NULL,
  message     TEXT         NOT NULL,
  created_at  DATETIME(6)  NOT NULL,
  INDEX idx_processing_failures_created (created_at)
)`

type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) *FailureRepository { return &FailureRepository{db: db} }

// Migrate creates the failures table when missing.
func (r *FailureRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *FailureRepository) Save(ctx context.Context, f *domain.Failure) error {
	const q = `
INSERT INTO processing_failures
  (id, request_id, endpoint, stage, category, message, created_at)
VALUES (?,?,?,?,?,?,?)
`
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, q,
		f.ID,
		stringOrDash(f.RequestID),
		stringOrDash(f.Endpoint),
		stringOrDash(f.Stage),
		stringOrDash(f.Category),
		truncate(stringOrDash(f.Message), maxMessageLen),
		f.CreatedAt,
	)
	return err
}

func (r *FailureRepository) Latest(ctx context.Context, limit int) ([]*domain.Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, request_id, endpoint, stage, category, message, created_at
FROM processing_failures
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Failure
	for rows.Next() {
		var f domain.Failure
		if err := rows.Scan(&f.ID, &f.RequestID, &f.Endpoint, &f.Stage, &f.Category, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
