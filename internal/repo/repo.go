package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"homesolution/internal/domain"
)

// Repo is the read side of the SQLite journal.
type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// EventFilter narrows journal queries. Zero values match everything.
type EventFilter struct {
	ProjectNumber int
	Type          string
	EntityKind    string
	EntityID      string
}

func (f EventFilter) where(cursor int64, cmp string) (string, []any) {
	clauses := []string{"1=1"}
	var args []any
	if f.ProjectNumber > 0 {
		clauses = append(clauses, "project_number=?")
		args = append(args, f.ProjectNumber)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	if f.EntityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, f.EntityID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id"+cmp+"?")
		args = append(args, cursor)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// LatestEvents returns journal entries newest first.
func (r Repo) LatestEvents(ctx context.Context, limit int, f EventFilter) ([]domain.Event, error) {
	return r.LatestEventsFrom(ctx, limit, 0, f)
}

// LatestEventsFrom pages backwards from cursor (exclusive).
func (r Repo) LatestEventsFrom(ctx context.Context, limit int, cursor int64, f EventFilter) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := f.where(cursor, "<")
	query := fmt.Sprintf(`SELECT id,op_id,ts,type,project_number,entity_kind,entity_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	return r.queryEvents(ctx, query, args...)
}

// EventsAfter returns events with ids greater than the cursor in ascending order.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64, f EventFilter) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	where, args := f.where(cursor, ">")
	query := fmt.Sprintf(`SELECT id,op_id,ts,type,project_number,entity_kind,entity_id,payload_json FROM events %s ORDER BY id ASC LIMIT ?`, where)
	args = append(args, limit)
	return r.queryEvents(ctx, query, args...)
}

func (r Repo) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		var project sql.NullInt64
		var entityID sql.NullString
		if err := rows.Scan(&e.ID, &e.OpID, &e.TS, &e.Type, &project, &e.EntityKind, &entityID, &e.Payload); err != nil {
			return nil, err
		}
		if project.Valid {
			n := int(project.Int64)
			e.ProjectNumber = &n
		}
		e.EntityID = entityID.String
		res = append(res, e)
	}
	return res, rows.Err()
}

// GetEvent returns one journal entry by id.
func (r Repo) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	events, err := r.queryEvents(ctx, `SELECT id,op_id,ts,type,project_number,entity_kind,entity_id,payload_json FROM events WHERE id=?`, id)
	if err != nil {
		return domain.Event{}, err
	}
	if len(events) == 0 {
		return domain.Event{}, ErrNotFound
	}
	return events[0], nil
}

// LatestEventID returns the most recent event id, 0 when the journal is empty.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events`).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// ListAssignments returns the journaled assignment history in append order.
// projectNumber 0 lists every project.
func (r Repo) ListAssignments(ctx context.Context, projectNumber int) ([]domain.Assignment, error) {
	query := `SELECT id,op_id,project_number,worker_id,task_title,ts FROM assignments`
	var args []any
	if projectNumber > 0 {
		query += ` WHERE project_number=?`
		args = append(args, projectNumber)
	}
	query += ` ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Assignment{}
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ID, &a.OpID, &a.ProjectNumber, &a.WorkerID, &a.TaskTitle, &a.TS); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// CountEvents returns how many journal entries match f.
func (r Repo) CountEvents(ctx context.Context, f EventFilter) (int, error) {
	where, args := f.where(0, "")
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events `+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
