package calls

import (
	"context"
	"database/sql"
	"strings"
)

// Repository is the persistence contract for call records.
//
// Upsert must be a single atomic conditional write keyed on call_id. On
// conflict it overwrites only the columns in overwrite, keeps id and
// created_at, and refreshes updated_at. Concurrent deliveries for the same
// call are serialized by the unique constraint, not by the caller.
type Repository interface {
	Upsert(ctx context.Context, rec CallRecord, overwrite FieldSet) (UpsertResult, error)
	List(ctx context.Context) ([]CallRecord, error)
}

// PostgresRepo stores calls in the calls table (see schema.go).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const insertColumns = `id, call_id, call_type, from_number, to_number, direction,
  agent_id, agent_version, call_status, start_timestamp, end_timestamp,
  duration_ms, transcript, recording_url, call_analysis, created_at, updated_at`

// upsertSQL builds the statement for a given overwrite set. xmax = 0 only
// holds for a row inserted by this statement, which tells inserts from updates.
func upsertSQL(overwrite FieldSet) string {
	sets := make([]string, 0, len(mutableColumns)+1)
	for _, col := range mutableColumns {
		if overwrite.Has(col.field) {
			sets = append(sets, col.name+" = EXCLUDED."+col.name)
		}
	}
	sets = append(sets, "updated_at = EXCLUDED.updated_at")

	var b strings.Builder
	b.WriteString("INSERT INTO calls (\n  ")
	b.WriteString(insertColumns)
	b.WriteString("\n) VALUES (\n  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17\n)\n")
	b.WriteString("ON CONFLICT (call_id)\nDO UPDATE SET ")
	b.WriteString(strings.Join(sets, ",\n              "))
	b.WriteString("\nRETURNING id, created_at, updated_at, (xmax = 0) AS inserted\n")
	return b.String()
}

func (r *PostgresRepo) Upsert(ctx context.Context, rec CallRecord, overwrite FieldSet) (UpsertResult, error) {
	var out UpsertResult
	err := r.db.QueryRowContext(ctx, upsertSQL(overwrite),
		rec.ID,
		rec.CallID,
		rec.CallType,
		rec.FromNumber,
		rec.ToNumber,
		rec.Direction,
		rec.AgentID,
		rec.AgentVersion,
		rec.Status,
		rec.StartTimestamp,
		rec.EndTimestamp,
		rec.DurationMS,
		rec.Transcript,
		rec.RecordingURL,
		rec.Analysis,
		rec.CreatedAt,
		rec.UpdatedAt,
	).Scan(
		&out.ID,
		&out.CreatedAt,
		&out.UpdatedAt,
		&out.Created,
	)
	if err != nil {
		return UpsertResult{}, err
	}
	return out, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]CallRecord, error) {
	const q = `
SELECT id, call_id, call_type, from_number, to_number, direction,
       agent_id, agent_version, call_status, start_timestamp, end_timestamp,
       duration_ms, transcript, recording_url, call_analysis, created_at, updated_at
FROM calls
ORDER BY created_at DESC, id DESC
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CallRecord, 0)
	for rows.Next() {
		var c CallRecord
		if err := rows.Scan(
			&c.ID,
			&c.CallID,
			&c.CallType,
			&c.FromNumber,
			&c.ToNumber,
			&c.Direction,
			&c.AgentID,
			&c.AgentVersion,
			&c.Status,
			&c.StartTimestamp,
			&c.EndTimestamp,
			&c.DurationMS,
			&c.Transcript,
			&c.RecordingURL,
			&c.Analysis,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping reports whether the database is reachable.
func (r *PostgresRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
