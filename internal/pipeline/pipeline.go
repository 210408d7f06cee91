// Package pipeline runs the football ELT job end to end:
// extract, transform, gate, load staging, build warehouse, KPIs, views.
//
// Stages run strictly in order and the first failure stops the run. The gate
// runs before the store is opened, so bad input never touches the store.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"footballdw/internal/config"
	"footballdw/internal/extract"
	"footballdw/internal/frame"
	"footballdw/internal/load"
	"footballdw/internal/metrics"
	"footballdw/internal/quality"
	"footballdw/internal/storage"
	"footballdw/internal/transformer"
	"footballdw/internal/warehouse"
)

// Stage names as they appear in logs and metrics.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageGate      = "gate"
	StageLoad      = "load_staging"
	StageWarehouse = "build_warehouse"
	StageKPIs      = "build_kpis"
	StageViews     = "build_views"
)

// fingerprintLen is how many hex digits of a staging fingerprint are logged.
const fingerprintLen = 12

// Logger is the minimal logging interface used by the runner.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// ReadFn reads one input file.
type ReadFn func(ctx context.Context, path string, opt extract.Options) (*frame.Frame, error)

// OpenFn opens the store.
type OpenFn func(ctx context.Context, cfg storage.Config) (*storage.DB, error)

// Runner executes the pipeline for one configuration. The function fields
// are seams for tests; NewRunner fills them with the production versions.
type Runner struct {
	Config config.Pipeline
	Logger Logger

	ReadMatches     ReadFn
	ReadPlayerStats ReadFn
	OpenStore       OpenFn
	NewRunID        func() string
	Now             func() time.Time
}

func NewRunner(cfg config.Pipeline, logger Logger) *Runner {
	return &Runner{
		Config:          cfg,
		Logger:          logger,
		ReadMatches:     extract.Matches,
		ReadPlayerStats: extract.PlayerStats,
		OpenStore:       storage.Open,
		NewRunID:        uuid.NewString,
		Now:             time.Now,
	}
}

// Summary describes a finished (or checked) run.
type Summary struct {
	RunID       string
	Matches     int
	PlayerStats int
	Staged      load.Result
	// Store is the database file for file-backed stores, else the kind.
	Store    string
	Duration time.Duration
}

// Check extracts, transforms and gates the inputs without opening the store.
func (r *Runner) Check(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: r.runID()}
	start := r.now()
	r.logf("START check run_id=%s job=%s", sum.RunID, r.Config.Job)

	m, s, err := r.prepare(ctx)
	if err != nil {
		return sum, err
	}
	sum.Matches, sum.PlayerStats = m.Len(), s.Len()
	sum.Duration = r.since(start)
	r.logf("DONE check run_id=%s matches=%d player_stats=%d duration=%s", sum.RunID, sum.Matches, sum.PlayerStats, sum.Duration)
	return sum, nil
}

// Run executes every stage. On error the returned Summary holds what was
// completed.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: r.runID(), Store: r.storeLabel()}
	start := r.now()
	defer r.flushMetrics()
	r.logf("START pipeline run_id=%s job=%s store_kind=%s", sum.RunID, r.Config.Job, r.Config.Storage.Kind)

	m, s, err := r.prepare(ctx)
	if err != nil {
		return sum, err
	}
	sum.Matches, sum.PlayerStats = m.Len(), s.Len()

	var fps string
	err = r.stage(StageLoad, func() error {
		return r.withStore(ctx, func(db *storage.DB) error {
			res, err := load.Staging(ctx, db, m, s, load.Options{BatchSize: r.Config.Runtime.BatchSize})
			if err != nil {
				return err
			}
			sum.Staged = res
			metrics.RecordRecords(load.StgMatches, res.Matches)
			metrics.RecordRecords(load.StgPlayerStats, res.PlayerStats)
			// equal fingerprints across runs mean the inputs did not change
			for _, rel := range []string{load.StgMatches, load.StgPlayerStats} {
				fp, _, err := db.Fingerprint(ctx, rel)
				if err != nil {
					return err
				}
				fps += fmt.Sprintf(" %s_fp=%s", rel, fp[:fingerprintLen])
			}
			return nil
		})
	}, func() string {
		return fmt.Sprintf(" %s=%d %s=%d%s", load.StgMatches, sum.Staged.Matches, load.StgPlayerStats, sum.Staged.PlayerStats, fps)
	})
	if err != nil {
		return sum, err
	}

	var counts string
	err = r.stage(StageWarehouse, func() error {
		return r.withStore(ctx, func(db *storage.DB) error {
			if err := warehouse.BuildStarSchema(ctx, db); err != nil {
				return err
			}
			for _, rel := range warehouse.StarSchema {
				n, err := db.Count(ctx, rel)
				if err != nil {
					return err
				}
				metrics.RecordRecords(rel, n)
				counts += fmt.Sprintf(" %s=%d", rel, n)
			}
			return nil
		})
	}, func() string { return counts })
	if err != nil {
		return sum, err
	}

	err = r.stage(StageKPIs, func() error {
		return r.withStore(ctx, func(db *storage.DB) error {
			return warehouse.BuildKPIs(ctx, db)
		})
	}, nil)
	if err != nil {
		return sum, err
	}

	th := r.thresholds()
	err = r.stage(StageViews, func() error {
		return r.withStore(ctx, func(db *storage.DB) error {
			return warehouse.BuildViews(ctx, db, th)
		})
	}, func() string {
		return fmt.Sprintf(" views=%d top_players_min_matches=%d top_players_min_avg_minutes=%g team_xg_min_matches=%d",
			len(warehouse.Views), th.TopPlayersMinMatches, th.TopPlayersMinAvgMinutes, th.TeamXGMinMatches)
	})
	if err != nil {
		return sum, err
	}

	sum.Duration = r.since(start)
	r.logf("DONE pipeline run_id=%s store=%s duration=%s", sum.RunID, sum.Store, sum.Duration)
	return sum, nil
}

// prepare runs extract, transform and gate.
func (r *Runner) prepare(ctx context.Context) (*frame.Frame, *frame.Frame, error) {
	cfg := r.Config
	var rawM, rawS, m, s *frame.Frame

	err := r.stage(StageExtract, func() error {
		var err error
		rawM, err = r.ReadMatches(ctx, cfg.Source.Matches.Path, extract.OptionsFrom(cfg.Source.Matches, cfg.Parser.Options))
		if err != nil {
			return err
		}
		rawS, err = r.ReadPlayerStats(ctx, cfg.Source.PlayerStats.Path, extract.OptionsFrom(cfg.Source.PlayerStats, cfg.Parser.Options))
		return err
	}, func() string {
		return fmt.Sprintf(" matches=%d player_stats=%d", rawM.Len(), rawS.Len())
	})
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordRecords("matches_raw", int64(rawM.Len()))
	metrics.RecordRecords("player_stats_raw", int64(rawS.Len()))

	err = r.stage(StageTransform, func() error {
		m, s = transformer.Transform(rawM, rawS, cfg.Transform.DateLayouts)
		return nil
	}, nil)
	if err != nil {
		return nil, nil, err
	}

	err = r.stage(StageGate, func() error {
		return quality.Validate(m, s, quality.DefaultRules())
	}, nil)
	if err != nil {
		return nil, nil, err
	}
	return m, s, nil
}

// stage times fn, logs the outcome and records step metrics. detail, when
// set, is appended to the success line.
func (r *Runner) stage(name string, fn func() error, detail func() string) error {
	start := r.now()
	err := fn()
	d := r.since(start)
	if err != nil {
		r.logf("stage=%s status=error duration=%s err=%v", name, d, err)
		metrics.RecordStep(name, metrics.StatusError, d)
		return fmt.Errorf("%s: %w", name, err)
	}
	extra := ""
	if detail != nil {
		extra = detail()
	}
	r.logf("stage=%s ok duration=%s%s", name, d, extra)
	metrics.RecordStep(name, metrics.StatusOK, d)
	return nil
}

// withStore opens the store for one stage and closes it afterwards.
func (r *Runner) withStore(ctx context.Context, fn func(db *storage.DB) error) error {
	db, err := r.OpenStore(ctx, storage.Config{Kind: r.Config.Storage.Kind, DSN: r.Config.Storage.DSN})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	return fn(db)
}

// flushMetrics pushes the run's metrics so they are not held until the
// backend's next tick.
func (r *Runner) flushMetrics() {
	if err := metrics.Flush(); err != nil {
		r.logf("metrics: flush error: %v", err)
	}
}

func (r *Runner) thresholds() warehouse.Thresholds {
	t := r.Config.Thresholds
	return warehouse.Thresholds{
		TopPlayersMinMatches:    t.TopPlayers.MinMatches,
		TopPlayersMinAvgMinutes: t.TopPlayers.MinAvgMinutes,
		TeamXGMinMatches:        t.TeamXG.MinMatches,
	}
}

func (r *Runner) storeLabel() string {
	if r.Config.Storage.IsFileStore() {
		return r.Config.Storage.DSN
	}
	return r.Config.Storage.Kind
}

func (r *Runner) runID() string {
	if r.NewRunID == nil {
		return uuid.NewString()
	}
	return r.NewRunID()
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Runner) since(start time.Time) time.Duration {
	return r.now().Sub(start).Truncate(time.Millisecond)
}

func (r *Runner) logf(format string, v ...any) {
	if r.Logger == nil {
		return
	}
	r.Logger.Printf(format, v...)
}
