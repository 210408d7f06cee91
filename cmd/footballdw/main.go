// Command footballdw builds the football analytics warehouse from the bronze
// CSV exports and prints the gold layer.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"footballdw/internal/config"
	"footballdw/internal/metrics"
	"footballdw/internal/metrics/datadog"
	"footballdw/internal/pipeline"
	"footballdw/internal/report"
	"footballdw/internal/storage"
	"footballdw/internal/warehouse"

	// every backend is compiled in; storage.kind picks one at runtime.
	_ "footballdw/internal/storage/all"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fatalf("footballdw: %v", err)
	}
}

// app carries the resolved configuration from the root command to the
// subcommands.
type app struct {
	cfgFile string
	loaded  *config.Loaded
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "footballdw",
		Short: "Football match ELT into a local analytics warehouse",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.loadConfig(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./"+config.DefaultConfigFile+" when present)")
	pf.String("matches", "", "matches CSV path")
	pf.String("player-stats", "", "player stats CSV path")
	pf.String("storage-kind", "", "store backend: sqlite, duckdb or postgres")
	pf.String("dsn", "", "store DSN or database file")
	pf.String("log-file", "", "pipeline log file")
	pf.BoolP("verbose", "v", false, "verbose logs")
	pf.String("metrics-backend", "", "metrics backend: none or datadog")

	root.AddCommand(a.runCmd(), a.checkCmd(), a.reportCmd())
	return root
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	loaded, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	issues := config.ValidatePipeline(loaded.Pipeline)
	for _, iss := range issues {
		fmt.Fprintln(a.stderr, iss.String())
	}
	if config.HasErrors(issues) {
		return errors.New("configuration is invalid")
	}
	a.loaded = loaded
	return nil
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: extract, transform, gate, load, warehouse, KPIs, views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withLogger(func(logger *log.Logger) error {
				stop := a.startMetrics(cmd.Context(), logger)
				defer stop()
				_, err := pipeline.NewRunner(a.loaded.Pipeline, logger).Run(cmd.Context())
				return err
			})
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Extract, transform and gate the inputs without touching the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withLogger(func(logger *log.Logger) error {
				_, err := pipeline.NewRunner(a.loaded.Pipeline, logger).Check(cmd.Context())
				return err
			})
		},
	}
}

func (a *app) reportCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print gold_kpis and the business views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printReport(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", report.DefaultLimit, "rows shown per view")
	return cmd
}

func (a *app) printReport(ctx context.Context, limit int) error {
	st := a.loaded.Pipeline.Storage
	if st.IsFileStore() {
		if _, err := os.Stat(st.DSN); err != nil {
			return fmt.Errorf("store %s not found, run `footballdw run` first: %w", st.DSN, err)
		}
	}
	db, err := storage.Open(ctx, storage.Config{Kind: st.Kind, DSN: st.DSN})
	if err != nil {
		return err
	}
	defer db.Close()

	ok, err := db.Exists(ctx, warehouse.GoldKPIs)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s has no %s, run `footballdw run` first", st.DSN, warehouse.GoldKPIs)
	}

	kpis, err := report.KPIs(ctx, db)
	if err != nil {
		return err
	}
	if err := report.Render(a.stdout, report.KPITable(kpis)); err != nil {
		return err
	}
	for _, s := range report.Sections {
		t, err := report.View(ctx, db, s.View, limit)
		if err != nil {
			return err
		}
		if err := report.Render(a.stdout, t); err != nil {
			return err
		}
	}
	return nil
}

// withLogger opens the log file, tees it with stdout and hands the logger to
// fn.
func (a *app) withLogger(fn func(*log.Logger) error) error {
	path := a.loaded.Pipeline.Log.File
	var out io.Writer = a.stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = io.MultiWriter(a.stdout, f)
	}

	flags := log.LstdFlags
	if a.loaded.Pipeline.Log.Verbose {
		flags |= log.Lmicroseconds
	}
	logger := log.New(out, "", flags)
	if a.loaded.Pipeline.Log.Verbose && a.loaded.File != "" {
		logger.Printf("config: file=%s", a.loaded.File)
	}
	return fn(logger)
}

// startMetrics installs the configured backend and returns its shutdown.
// A backend that fails to start leaves metrics disabled.
func (a *app) startMetrics(ctx context.Context, logger *log.Logger) func() {
	m := a.loaded.Pipeline.Metrics
	switch m.Backend {
	case "datadog":
		tags := datadog.ParseTags(m.Tags)
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    a.loaded.Pipeline.Job,
			Tags:       tags,
			FlushEvery: m.FlushEvery,
		})
		if err != nil {
			logger.Printf("metrics: datadog init failed: %v; metrics disabled", err)
			return func() {}
		}
		logger.Printf("metrics: backend=datadog job=%s tags=%v", a.loaded.Pipeline.Job, tags)
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				logger.Printf("metrics: datadog close: %v", err)
			}
			metrics.SetBackend(nil)
		}
	case "", "none":
		return func() {}
	default:
		logger.Printf("metrics: unknown backend %q; metrics disabled", m.Backend)
		return func() {}
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
