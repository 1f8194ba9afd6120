package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBSink persists events to a SQL table. It runs against postgres
// (lib/pq) in production; the $N placeholders are also accepted by the
// sqlite driver, which the tests use with their own schema.
type DBSink struct {
	db *sql.DB
}

// NewDBSink creates a sink over an open database handle
func NewDBSink(db *sql.DB) *DBSink {
	return &DBSink{db: db}
}

// Migrate creates the audit_events table if it does not exist. The DDL
// targets postgres.
func (s *DBSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id             BIGSERIAL PRIMARY KEY,
			actor_id       TEXT NOT NULL,
			actor_role     TEXT NOT NULL,
			permission     TEXT NOT NULL,
			outcome        TEXT NOT NULL,
			correlation_id TEXT,
			target_user_id TEXT,
			previous_role  TEXT,
			new_role       TEXT,
			message        TEXT,
			created_at     TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create audit_events table: %w", err)
	}
	return nil
}

// Record implements Sink
func (s *DBSink) Record(ctx context.Context, event *Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(actor_id, actor_role, permission, outcome, correlation_id,
			 target_user_id, previous_role, new_role, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		event.ActorID,
		event.ActorRole,
		event.Permission,
		string(event.Outcome),
		event.CorrelationID,
		event.TargetUserID,
		event.PreviousRole,
		event.NewRole,
		event.Message,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes events recorded before cutoff and returns the
// number of rows removed. Used by the retention sweeper.
func (s *DBSink) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit events: %w", err)
	}
	return res.RowsAffected()
}

// CountByOutcome returns event counts grouped by outcome, for operator
// dashboards and tests.
func (s *DBSink) CountByOutcome(ctx context.Context) (map[Outcome]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM audit_events GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[Outcome]int64)
	for rows.Next() {
		var outcome string
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		counts[Outcome(outcome)] = count
	}
	return counts, rows.Err()
}

// Close implements Sink. The db handle is owned by the caller.
func (s *DBSink) Close() error { return nil }
