package migrate_test

import (
	"context"
	"testing"

	"homesolution/internal/db"
	"homesolution/internal/migrate"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	if v, err := migrate.Version(ctx, conn); err != nil || v != 0 {
		t.Fatalf("fresh journal should be at version 0, got %d %v", v, err)
	}
	latest, err := migrate.Latest()
	if err != nil || latest != 1 {
		t.Fatalf("expected latest version 1, got %d %v", latest, err)
	}
	for i := 0; i < 2; i++ {
		v, err := migrate.Migrate(ctx, conn)
		if err != nil {
			t.Fatalf("migrate run %d: %v", i, err)
		}
		if v != latest {
			t.Fatalf("migrate run %d reported version %d", i, v)
		}
	}
	if v, err := migrate.Version(ctx, conn); err != nil || v != latest {
		t.Fatalf("expected version %d, got %d %v", latest, v, err)
	}
	for _, table := range []string{"events", "assignments"} {
		var name string
		if err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrateHonorsCanceledContext(t *testing.T) {
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := migrate.Migrate(ctx, conn); err == nil {
		t.Fatalf("expected error on canceled context")
	}
	if v, err := migrate.Version(context.Background(), conn); err != nil || v != 0 {
		t.Fatalf("canceled migration must not apply, got %d %v", v, err)
	}
}

func TestStepsAreOrdered(t *testing.T) {
	steps, err := migrate.Steps()
	if err != nil {
		t.Fatalf("steps: %v", err)
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].Version <= steps[i-1].Version {
			t.Fatalf("steps out of order: %+v", steps)
		}
	}
	if len(steps) == 0 || steps[0].Name != "001_journal.sql" {
		t.Fatalf("unexpected steps %+v", steps)
	}
}
