package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"homesolution/internal/app"
	"homesolution/internal/config"
	"homesolution/internal/domain"
	"homesolution/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "hs",
	Short: "HomeSolution CLI",
	Long: `HomeSolution assigns workers to the tasks of home-service projects and
computes what each project costs.
- Workers: hourly (billed per hour, half a day or less bills 4 hours) or
  salaried (billed per started day, 2% bonus while they have no delays).
- Projects: PENDING while a task has no worker, ACTIVE once every task is
  covered, FINALIZED when closed. Finalized projects are read-only.
- Cost: assigned estimates times 1.35, or 1.25 once any task is delayed.
- Workspace: homesolution.yml holds the seed every command starts from;
  .homesolution/journal.db keeps the audit journal (see 'hs log tail').`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HOMESOLUTION")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("journal", "", "journal driver: sqlite, postgres or none (overrides config)")
	rootCmd.PersistentFlags().String("config", "", "config file (default <workspace>/homesolution.yml)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("journal", rootCmd.PersistentFlags().Lookup("journal"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func registerCommands() {
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(workersCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(logCmd())
}

func seedCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Print the default homesolution.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !write {
				fmt.Print(config.GenerateDefault())
				return nil
			}
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write the file into the workspace instead of printing it")
	return cmd
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summarize every seeded project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), false, func(ctx context.Context, a *app.App) error {
				return printReport(a)
			})
		},
	}
}

func workersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "List seeded workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), false, func(ctx context.Context, a *app.App) error {
				workers := a.Engine.WorkerViews()
				if viper.GetBool("json") {
					return printJSON(workers)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Kind", "Rate", "Category", "Available", "Delays"})
				for _, w := range workers {
					tw.AppendRow(table.Row{w.ID, w.Name, w.Kind, w.Rate, w.Category, w.Available, w.Delays})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script.yml>",
		Short: "Apply a script of operations on top of the seed and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := config.LoadScript(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), false, func(ctx context.Context, a *app.App) error {
				results := app.RunScript(ctx, a.Engine, script)
				failed := 0
				if viper.GetBool("json") {
					type row struct {
						config.Step
						Worker int    `json:"worker,omitempty"`
						Error  string `json:"error,omitempty"`
					}
					rows := make([]row, 0, len(results))
					for _, r := range results {
						out := row{Step: r.Step, Worker: r.Worker}
						if r.Err != nil {
							out.Error = r.Err.Error()
							failed++
						}
						rows = append(rows, out)
					}
					if err := printJSON(rows); err != nil {
						return err
					}
				} else {
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"#", "Op", "Project", "Task", "Worker", "Result"})
					for i, r := range results {
						result := "ok"
						if r.Err != nil {
							result = r.Err.Error()
							failed++
						}
						worker := ""
						if r.Worker != 0 {
							worker = fmt.Sprint(r.Worker)
						}
						tw.AppendRow(table.Row{i + 1, r.Step.Op, r.Step.Project, r.Step.Task, worker, result})
					}
					tw.Render()
					if err := printReport(a); err != nil {
						return err
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d steps failed", failed, len(results))
				}
				return nil
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(os.Stderr, "hs: ", log.LstdFlags)
			a, err := openApp(cmd.Context(), false, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if !cmd.Flags().Changed("addr") {
				addr = a.Config.Server.Addr
			}
			if !cmd.Flags().Changed("base-path") {
				basePath = a.Config.Server.BasePath
			}
			cfg := server.Config{Engine: a.Engine, BasePath: basePath}
			if a.Log != nil {
				cfg.Events = a.Log
			}
			handler, err := server.New(cfg)
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ErrorLog: logger}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Printf("serving HomeSolution API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address (overrides config)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path (overrides config)")
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Audit journal",
		Long:  "Every successful operation of every session, newest first. The journal is never replayed.",
	}
	cmd.AddCommand(logTailCmd())
	cmd.AddCommand(logAssignmentsCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n, project int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), true, func(ctx context.Context, a *app.App) error {
				if a.Log == nil {
					return fmt.Errorf("journal is disabled")
				}
				events, err := a.Log.Recent(ctx, n, project)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "TS", "Type", "Project", "Entity", "Payload"})
				for _, e := range events {
					p := ""
					if e.ProjectNumber != nil {
						p = fmt.Sprint(*e.ProjectNumber)
					}
					tw.AppendRow(table.Row{e.ID, e.TS, e.Type, p, e.EntityKind + ":" + e.EntityID, e.Payload})
				}
				if a.SchemaVersion > 0 {
					tw.SetCaption("journal schema version %d", a.SchemaVersion)
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	cmd.Flags().IntVar(&project, "project", 0, "project number filter")
	return cmd
}

func logAssignmentsCmd() *cobra.Command {
	var project int
	cmd := &cobra.Command{
		Use:   "assignments",
		Short: "List journaled worker/task pairings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), true, func(ctx context.Context, a *app.App) error {
				if a.Log == nil {
					return fmt.Errorf("journal is disabled")
				}
				rows, err := a.Log.Assignments(ctx, project)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Project", "Worker", "Task"})
				for _, r := range rows {
					tw.AppendRow(table.Row{r.TS, r.ProjectNumber, r.WorkerID, r.TaskTitle})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&project, "project", 0, "project number filter")
	return cmd
}

// --- helpers ---

func openApp(ctx context.Context, skipSeed bool, logger *log.Logger) (*app.App, error) {
	return app.Open(ctx, app.Options{
		Workspace:  viper.GetString("workspace"),
		ConfigPath: viper.GetString("config"),
		Journal:    viper.GetString("journal"),
		Logger:     logger,
		SkipSeed:   skipSeed,
	})
}

func withApp(ctx context.Context, skipSeed bool, fn func(context.Context, *app.App) error) error {
	a, err := openApp(ctx, skipSeed, log.New(os.Stderr, "hs: ", 0))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printReport(a *app.App) error {
	rows, err := a.Engine.Report()
	if err != nil {
		return err
	}
	total, err := a.Engine.TotalCost()
	if err != nil {
		return err
	}
	if viper.GetBool("json") {
		return printJSON(map[string]any{"projects": rows, "total_cost": total})
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"#", "Address", "Client", "Status", "Tasks", "Done", "Delayed", "Cost"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r.Number, r.Address, r.Client, r.Status, r.Tasks, r.Done, yesNo(r.Delayed), fmt.Sprintf("%.2f", r.Cost)})
	}
	tw.AppendFooter(table.Row{"", "", "", "", "", "", "Total", fmt.Sprintf("%.2f", total)})
	tw.Render()
	for _, r := range rows {
		if r.Status == domain.StatusFinalized {
			continue
		}
		pending, err := a.Engine.UnassignedTasks(r.Number)
		if err != nil {
			return err
		}
		if len(pending) > 0 {
			fmt.Printf("project %d waiting on workers for: %s\n", r.Number, strings.Join(pending, ", "))
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
