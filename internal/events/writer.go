package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type EventPayload map[string]any

// Entry is one journal record. Assignment is set when the operation added a
// pairing to a project's assignment history.
type Entry struct {
	OpID          string
	Type          string
	ProjectNumber int
	EntityKind    string
	EntityID      string
	Payload       EventPayload
	Assignment    *AssignmentEntry
}

type AssignmentEntry struct {
	WorkerID  int
	TaskTitle string
}

// Writer is the SQLite journal, written through database/sql.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

func (w Writer) Append(ctx context.Context, e Entry) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	data, err := marshalPayload(e.Payload)
	if err != nil {
		return err
	}
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO events(op_id,ts,type,project_number,entity_kind,entity_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		e.OpID, ts, e.Type, nullableInt(e.ProjectNumber), e.EntityKind, nullable(e.EntityID), data); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if a := e.Assignment; a != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO assignments(op_id,project_number,worker_id,task_title,ts) VALUES (?,?,?,?,?)`,
			e.OpID, e.ProjectNumber, a.WorkerID, a.TaskTitle, ts); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return tx.Commit()
}

func marshalPayload(p EventPayload) (string, error) {
	if p == nil {
		p = EventPayload{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal event payload: %w", err)
	}
	return string(data), nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
