package events

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"homesolution/internal/domain"
)

// PgStore is a PostgreSQL-backed journal.
type PgStore struct {
	pool *pgxpool.Pool
	Now  func() time.Time
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, Now: time.Now}
}

// OpenPg connects to dsn and makes sure the journal tables exist.
func OpenPg(ctx context.Context, dsn string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := NewPgStore(pool)
	if err := s.EnsureTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgStore) Close() { s.pool.Close() }

// EnsureTables creates the journal tables if they don't exist.
func (s *PgStore) EnsureTables(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id             BIGSERIAL PRIMARY KEY,
			op_id          TEXT NOT NULL,
			ts             TIMESTAMPTZ NOT NULL,
			type           TEXT NOT NULL,
			project_number INTEGER,
			entity_kind    TEXT NOT NULL,
			entity_id      TEXT,
			payload        JSONB NOT NULL DEFAULT '{}'
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS assignments (
			id             BIGSERIAL PRIMARY KEY,
			op_id          TEXT NOT NULL,
			project_number INTEGER NOT NULL,
			worker_id      INTEGER NOT NULL,
			task_title     TEXT NOT NULL,
			ts             TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_events_project ON events(project_number)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_assignments_project ON assignments(project_number)`)
	return err
}

func (s *PgStore) Append(ctx context.Context, e Entry) error {
	payload, err := marshalPayload(e.Payload)
	if err != nil {
		return err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ts := now().UTC().Truncate(time.Microsecond)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO events (op_id, ts, type, project_number, entity_kind, entity_id, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)`,
		e.OpID, ts, e.Type, nullableInt(e.ProjectNumber), e.EntityKind, nullable(e.EntityID), payload)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if a := e.Assignment; a != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO assignments (op_id, project_number, worker_id, task_title, ts)
			VALUES ($1, $2, $3, $4, $5)`,
			e.OpID, e.ProjectNumber, a.WorkerID, a.TaskTitle, ts)
		if err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit event: %w", err)
	}
	return nil
}

// Recent returns the latest events, newest first.
func (s *PgStore) Recent(ctx context.Context, limit int, projectNumber int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, op_id, ts, type, project_number, entity_kind, COALESCE(entity_id, ''), payload::text
		FROM events
		WHERE $1 = 0 OR project_number = $1
		ORDER BY id DESC LIMIT $2`, projectNumber, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Event{}
	for rows.Next() {
		var ev domain.Event
		var ts time.Time
		var project *int
		if err := rows.Scan(&ev.ID, &ev.OpID, &ts, &ev.Type, &project, &ev.EntityKind, &ev.EntityID, &ev.Payload); err != nil {
			return nil, err
		}
		ev.TS = ts.UTC().Format(time.RFC3339)
		ev.ProjectNumber = project
		res = append(res, ev)
	}
	return res, rows.Err()
}

// Assignments returns the journaled assignment history in append order.
func (s *PgStore) Assignments(ctx context.Context, projectNumber int) ([]domain.Assignment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, op_id, project_number, worker_id, task_title, ts
		FROM assignments
		WHERE $1 = 0 OR project_number = $1
		ORDER BY id ASC`, projectNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Assignment{}
	for rows.Next() {
		var a domain.Assignment
		var ts time.Time
		if err := rows.Scan(&a.ID, &a.OpID, &a.ProjectNumber, &a.WorkerID, &a.TaskTitle, &ts); err != nil {
			return nil, err
		}
		a.TS = ts.UTC().Format(time.RFC3339)
		res = append(res, a)
	}
	return res, rows.Err()
}
