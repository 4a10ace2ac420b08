package events_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"homesolution/internal/events"
)

func newPgStore(t *testing.T) *events.PgStore {
	t.Helper()
	dsn := os.Getenv("HOMESOLUTION_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("HOMESOLUTION_TEST_PG_DSN not set")
	}
	s, err := events.OpenPg(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestPgStoreAppendAndRead(t *testing.T) {
	s := newPgStore(t)
	ctx := context.Background()
	s.Now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	// A project number of its own keeps reruns against a shared database apart.
	project := int(time.Now().UnixNano()%1_000_000_000) + 1

	entries := []events.Entry{
		{OpID: uuid.NewString(), Type: "project.registered", ProjectNumber: project, EntityKind: "project", EntityID: "p",
			Payload: events.EventPayload{"client": "Homero"}},
		{OpID: uuid.NewString(), Type: "task.assigned", ProjectNumber: project, EntityKind: "task", EntityID: "Paint",
			Payload:    events.EventPayload{"worker_id": 1},
			Assignment: &events.AssignmentEntry{WorkerID: 1, TaskTitle: "Paint"}},
		{OpID: uuid.NewString(), Type: "task.reassigned", ProjectNumber: project, EntityKind: "task", EntityID: "Paint",
			Assignment: &events.AssignmentEntry{WorkerID: 2, TaskTitle: "Paint"}},
	}
	for _, e := range entries {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("append %s: %v", e.Type, err)
		}
	}

	recent, err := s.Recent(ctx, 2, project)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Type != "task.reassigned" || recent[1].Type != "task.assigned" {
		t.Fatalf("expected newest two entries first, got %+v", recent)
	}
	if recent[0].ProjectNumber == nil || *recent[0].ProjectNumber != project || recent[0].TS != "2024-01-01T12:00:00Z" {
		t.Fatalf("unexpected event %+v", recent[0])
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(recent[1].Payload), &payload); err != nil || payload["worker_id"] != float64(1) {
		t.Fatalf("unexpected payload %q %v", recent[1].Payload, err)
	}

	rows, err := s.Assignments(ctx, project)
	if err != nil {
		t.Fatalf("assignments: %v", err)
	}
	if len(rows) != 2 || rows[0].WorkerID != 1 || rows[1].WorkerID != 2 || rows[1].OpID != entries[2].OpID {
		t.Fatalf("unexpected assignments %+v", rows)
	}
	none, err := s.Assignments(ctx, -project)
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil result, got %v %v", none, err)
	}
}
