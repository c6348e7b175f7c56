package calls

import (
	"context"
	"database/sql"
	"fmt"

	"call-ingest/pkg/utils"
)

// schemaStatements create the single calls table. call_id carries the unique
// constraint the upsert conflicts on.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS calls (
  id              TEXT PRIMARY KEY,
  call_id         TEXT NOT NULL,
  call_type       TEXT NOT NULL DEFAULT 'phone_call',
  from_number     TEXT,
  to_number       TEXT,
  direction       TEXT,
  agent_id        TEXT NOT NULL DEFAULT 'unknown',
  agent_version   BIGINT NOT NULL DEFAULT 1,
  call_status     TEXT NOT NULL DEFAULT 'started',
  start_timestamp TEXT,
  end_timestamp   TEXT,
  duration_ms     BIGINT,
  transcript      TEXT,
  recording_url   TEXT,
  call_analysis   TEXT,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT calls_call_id_key UNIQUE (call_id)
)`,
	`CREATE INDEX IF NOT EXISTS calls_created_at_idx ON calls (created_at DESC, id DESC)`,
}

// Migrate applies the schema. Safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	return utils.WithTx(ctx, db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		for i, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("calls: migrate step %d: %w", i+1, err)
			}
		}
		return nil
	})
}
