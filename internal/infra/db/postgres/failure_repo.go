package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/resume-scrubber/internal/domain/failures"
)

const schema = `
CREATE TABLE IF NOT EXISTS processing_failures (
  id          UUID         PRIMARY KEY,
  request_id  VARCHAR(64)  NOT NULL,
  endpoint    VARCHAR(32)  NOT NULL,
  stage       VARCHAR(32)  NOT NULL,
  category    VARCHAR(32)  NOT NULL,
  message     TEXT         NOT NULL,
  created_at  TIMESTAMPTZ  NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processing_failures_created ON processing_failures (created_at DESC);`

type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) *FailureRepository {
	return &FailureRepository{db: db}
}

// Migrate creates the failures table when missing.
func (r *FailureRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Save inserts a failure record; a retried save with the same id is ignored.
func (r *FailureRepository) Save(ctx context.Context, f *domain.Failure) error {
	const q = `
INSERT INTO processing_failures
  (id, request_id, endpoint, stage, category, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING;
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
		stringOrDash(f.Message),
		f.CreatedAt,
	)
	return err
}

// Latest returns the newest failure records first
func (r *FailureRepository) Latest(ctx context.Context, limit int) ([]*domain.Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, request_id, endpoint, stage, category, message, created_at
FROM processing_failures
ORDER BY created_at DESC, id DESC
LIMIT $1;
`
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
