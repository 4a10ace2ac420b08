package repo_test

import (
	"context"
	"testing"
	"time"

	"homesolution/internal/db"
	"homesolution/internal/events"
	"homesolution/internal/migrate"
	"homesolution/internal/repo"
)

func newJournal(t *testing.T) (events.Writer, repo.Repo) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := migrate.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	w := events.Writer{DB: conn, Now: func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }}
	return w, repo.Repo{DB: conn}
}

func TestLatestEventsFilters(t *testing.T) {
	w, r := newJournal(t)
	ctx := context.Background()
	entries := []events.Entry{
		{OpID: "op-1", Type: "worker.registered", EntityKind: "worker", EntityID: "1"},
		{OpID: "op-2", Type: "project.registered", ProjectNumber: 1, EntityKind: "project", EntityID: "1"},
		{OpID: "op-3", Type: "task.assigned", ProjectNumber: 1, EntityKind: "task", EntityID: "Paint",
			Payload: events.EventPayload{"worker_id": 1}, Assignment: &events.AssignmentEntry{WorkerID: 1, TaskTitle: "Paint"}},
		{OpID: "op-4", Type: "project.registered", ProjectNumber: 2, EntityKind: "project", EntityID: "2"},
	}
	for _, e := range entries {
		if err := w.Append(ctx, e); err != nil {
			t.Fatalf("append %s: %v", e.Type, err)
		}
	}

	all, err := r.LatestEvents(ctx, 10, repo.EventFilter{})
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(all) != 4 || all[0].OpID != "op-4" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if all[3].ProjectNumber != nil {
		t.Fatalf("worker event should have no project")
	}

	p1, err := r.LatestEvents(ctx, 10, repo.EventFilter{ProjectNumber: 1})
	if err != nil {
		t.Fatalf("latest project: %v", err)
	}
	if len(p1) != 2 || *p1[0].ProjectNumber != 1 {
		t.Fatalf("expected 2 events for project 1, got %+v", p1)
	}
	if p1[0].Payload != `{"worker_id":1}` {
		t.Fatalf("unexpected payload %q", p1[0].Payload)
	}

	typed, err := r.LatestEvents(ctx, 10, repo.EventFilter{Type: "project.registered"})
	if err != nil || len(typed) != 2 {
		t.Fatalf("type filter: %v %+v", err, typed)
	}

	after, err := r.EventsAfter(ctx, 10, all[2].ID, repo.EventFilter{})
	if err != nil || len(after) != 2 || after[0].OpID != "op-3" {
		t.Fatalf("events after: %v %+v", err, after)
	}

	n, err := r.CountEvents(ctx, repo.EventFilter{EntityKind: "project"})
	if err != nil || n != 2 {
		t.Fatalf("count: %v %d", err, n)
	}
	last, err := r.LatestEventID(ctx)
	if err != nil || last != all[0].ID {
		t.Fatalf("latest id: %v %d", err, last)
	}
}

func TestListAssignments(t *testing.T) {
	w, r := newJournal(t)
	ctx := context.Background()
	for i, title := range []string{"Paint", "Plumb", "Paint"} {
		err := w.Append(ctx, events.Entry{
			OpID: "op", Type: "task.assigned", ProjectNumber: 1 + i%2, EntityKind: "task", EntityID: title,
			Assignment: &events.AssignmentEntry{WorkerID: i + 1, TaskTitle: title},
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := r.ListAssignments(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].WorkerID != 1 || got[1].WorkerID != 3 {
		t.Fatalf("unexpected assignments %+v", got)
	}
	if got[0].TS != "2024-01-01T00:00:00Z" {
		t.Fatalf("unexpected ts %q", got[0].TS)
	}
	all, err := r.ListAssignments(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("list all: %v %+v", err, all)
	}
}

func TestGetEventNotFound(t *testing.T) {
	_, r := newJournal(t)
	if _, err := r.GetEvent(context.Background(), 42); err != repo.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
