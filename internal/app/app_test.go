package app_test

import (
	"context"
	"errors"
	"testing"

	"homesolution/internal/app"
	"homesolution/internal/config"
	"homesolution/internal/domain"
)

func TestOpenAppliesDefaultSeed(t *testing.T) {
	ctx := context.Background()
	a, err := app.Open(ctx, app.Options{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()
	if a.SchemaVersion != 1 {
		t.Fatalf("expected journal schema version 1, got %d", a.SchemaVersion)
	}
	if got := a.Engine.Workers(); len(got) != 3 || got[1].Name != "Luis" {
		t.Fatalf("unexpected workers %+v", got)
	}
	titles, err := a.Engine.TaskTitles(1)
	if err != nil || len(titles) != 4 {
		t.Fatalf("unexpected tasks %v %v", titles, err)
	}
	evts, err := a.Log.Recent(ctx, 10, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(evts) != 4 || evts[0].Type != "project.registered" {
		t.Fatalf("seed must be journaled, got %+v", evts)
	}
}

func TestOpenWithoutJournal(t *testing.T) {
	a, err := app.Open(context.Background(), app.Options{Workspace: t.TempDir(), Journal: config.JournalNone, SkipSeed: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()
	if a.Log != nil || a.SchemaVersion != 0 {
		t.Fatalf("expected no event log, got version %d", a.SchemaVersion)
	}
	if len(a.Engine.Workers()) != 0 {
		t.Fatalf("expected empty engine")
	}
}

func TestApplySeedRejectsBadWorker(t *testing.T) {
	cfg := config.Default()
	cfg.Seed.Workers = append(cfg.Seed.Workers, config.SeedWorker{Kind: "salaried", Name: "x", Rate: 1, Category: "BOSS"})
	_, err := app.OpenWithConfig(context.Background(), cfg, app.Options{Journal: config.JournalNone})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestRunScript(t *testing.T) {
	ctx := context.Background()
	a, err := app.Open(ctx, app.Options{Workspace: t.TempDir(), Journal: config.JournalNone})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()
	script, err := config.ScriptFromYAML([]byte(`
steps:
  - {op: assign, project: 1, task: Paint}
  - {op: assign, project: 1, task: Wiring, strategy: least-delay}
  - {op: assign, project: 1, task: Gardening}
  - {op: assign, project: 1, task: Air conditioning}
  - {op: delay, project: 1, task: Paint, days: 2}
  - {op: finish, project: 1, task: Paint}
  - {op: finish, project: 1, task: Wiring}
  - {op: finish, project: 1, task: Gardening}
  - {op: finalize, project: 1, date: "2025-12-01"}
`))
	if err != nil {
		t.Fatalf("script: %v", err)
	}
	res := app.RunScript(ctx, a.Engine, script)
	if res[0].Err != nil || res[0].Worker != 1 || res[1].Worker != 2 || res[2].Worker != 3 {
		t.Fatalf("unexpected assignments %+v", res[:3])
	}
	if !errors.Is(res[3].Err, domain.ErrUnavailable) {
		t.Fatalf("expected no worker left, got %v", res[3].Err)
	}
	if !errors.Is(res[8].Err, domain.ErrInvariant) {
		t.Fatalf("expected finalize to fail on the unassigned task, got %v", res[8].Err)
	}
	if st, _ := a.Engine.ProjectStatus(1); st != domain.StatusPending {
		t.Fatalf("expected PENDING, got %s", st)
	}
}
