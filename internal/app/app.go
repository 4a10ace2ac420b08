package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"homesolution/internal/config"
	"homesolution/internal/db"
	"homesolution/internal/domain"
	"homesolution/internal/engine"
	"homesolution/internal/events"
	"homesolution/internal/migrate"
	"homesolution/internal/repo"
)

// EventLog is the read side of whichever journal is configured.
type EventLog interface {
	Recent(ctx context.Context, limit, projectNumber int) ([]domain.Event, error)
	Assignments(ctx context.Context, projectNumber int) ([]domain.Assignment, error)
}

// App bundles an engine with its journal.
type App struct {
	Engine *engine.Engine
	Config *config.Config
	// Log is nil when the journal is disabled.
	Log EventLog
	// SchemaVersion is the SQLite journal schema version, 0 for other drivers.
	SchemaVersion int

	close func()
}

type Options struct {
	Workspace string
	// ConfigPath overrides <workspace>/homesolution.yml when set.
	ConfigPath string
	// Journal overrides config.journal.driver when set.
	Journal string
	Logger  *log.Logger
	// SkipSeed starts from an empty engine.
	SkipSeed bool
}

// Open builds a fresh engine for the workspace: it opens the configured
// journal, then applies the config seed. A missing config file falls back to
// the default config.
func Open(ctx context.Context, opts Options) (*App, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.FromFile(opts.ConfigPath)
	} else {
		cfg, err = config.LoadOptional(opts.Workspace)
	}
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return OpenWithConfig(ctx, cfg, opts)
}

func OpenWithConfig(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	driver := cfg.Journal.Driver
	if opts.Journal != "" {
		driver = opts.Journal
	}
	a := &App{Config: cfg, close: func() {}}
	var journal engine.Journal
	switch driver {
	case config.JournalNone:
	case config.JournalPostgres:
		if cfg.Journal.DSN == "" {
			return nil, fmt.Errorf("journal dsn is required for postgres")
		}
		store, err := events.OpenPg(ctx, cfg.Journal.DSN)
		if err != nil {
			return nil, err
		}
		journal, a.Log, a.close = store, store, store.Close
	case config.JournalSQLite, "":
		conn, version, err := openSQLite(ctx, opts.Workspace, cfg.Journal.DSN)
		if err != nil {
			return nil, err
		}
		journal = events.Writer{DB: conn}
		a.Log = sqliteLog{repo.Repo{DB: conn}}
		a.SchemaVersion = version
		a.close = func() { conn.Close() }
	default:
		return nil, fmt.Errorf("unknown journal driver %q", driver)
	}
	a.Engine = engine.New(journal, opts.Logger)
	if !opts.SkipSeed {
		if err := ApplySeed(ctx, a.Engine, cfg.Seed); err != nil {
			a.Close()
			return nil, fmt.Errorf("apply seed: %w", err)
		}
	}
	return a, nil
}

func openSQLite(ctx context.Context, workspace, path string) (*sql.DB, int, error) {
	var (
		conn *sql.DB
		err  error
	)
	if path != "" {
		conn, err = db.OpenPath(path)
	} else {
		conn, err = db.Open(db.Config{Workspace: workspace})
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open journal: %w", err)
	}
	version, err := migrate.Migrate(ctx, conn)
	if err != nil {
		conn.Close()
		return nil, 0, fmt.Errorf("migrate journal: %w", err)
	}
	return conn, version, nil
}

func (a *App) Close() {
	if a.close != nil {
		a.close()
	}
}

type sqliteLog struct {
	repo repo.Repo
}

func (l sqliteLog) Recent(ctx context.Context, limit, projectNumber int) ([]domain.Event, error) {
	return l.repo.LatestEvents(ctx, limit, repo.EventFilter{ProjectNumber: projectNumber})
}

func (l sqliteLog) Assignments(ctx context.Context, projectNumber int) ([]domain.Assignment, error) {
	return l.repo.ListAssignments(ctx, projectNumber)
}

// ApplySeed registers the seed workers, then the seed projects, in file order.
func ApplySeed(ctx context.Context, eng *engine.Engine, seed config.Seed) error {
	for i, w := range seed.Workers {
		var err error
		switch domain.WorkerKind(w.Kind) {
		case domain.KindHourly:
			_, err = eng.RegisterHourly(ctx, w.Name, w.Rate)
		case domain.KindSalaried:
			_, err = eng.RegisterSalaried(ctx, w.Name, w.Rate, w.Category)
		default:
			err = fmt.Errorf("unknown worker kind %q", w.Kind)
		}
		if err != nil {
			return fmt.Errorf("worker %d: %w", i, err)
		}
	}
	for i, p := range seed.Projects {
		if _, err := eng.RegisterProject(ctx, p); err != nil {
			return fmt.Errorf("project %d: %w", i, err)
		}
	}
	return nil
}
