// Package pipeline orchestrates the full analytics run: load, normalize,
// resolve geography, aggregate, score, compile, persist.
package pipeline

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/civic-pulse/internal/aggregate"
	"github.com/sells-group/civic-pulse/internal/compile"
	"github.com/sells-group/civic-pulse/internal/config"
	"github.com/sells-group/civic-pulse/internal/geography"
	"github.com/sells-group/civic-pulse/internal/loader"
	"github.com/sells-group/civic-pulse/internal/metrics"
	"github.com/sells-group/civic-pulse/internal/model"
	"github.com/sells-group/civic-pulse/internal/normalize"
	"github.com/sells-group/civic-pulse/internal/store"
)

// Pipeline runs the batch analytics job.
type Pipeline struct {
	cfg   *config.Config
	store store.Store // optional; nil skips persistence
}

// New creates a Pipeline. The store may be nil when persistence is disabled.
func New(cfg *config.Config, st store.Store) *Pipeline {
	return &Pipeline{cfg: cfg, store: st}
}

// Run executes one full pipeline pass and returns the three result tables.
// Each stage consumes the immutable output of the previous stage. A category
// with no usable shards is fatal: the run aborts and no tables are produced.
func (p *Pipeline) Run(ctx context.Context) (*model.Result, error) {
	log := zap.L()

	// Load and normalize each category.
	datasets := make(map[model.Category]*model.Dataset, len(model.Categories))
	for _, category := range model.Categories {
		dir := filepath.Join(p.cfg.Input.BaseDir, p.cfg.Input.CategoryDir(string(category)))
		ds, err := loader.Load(ctx, dir, category, p.cfg.Input.Parallelism)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: load %s", category)
		}

		normalized, err := normalize.Normalize(ds)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: normalize %s", category)
		}
		// The usability check runs on the normalized table: a category whose
		// rows all carry garbage geography is as unusable as an empty one.
		if len(normalized.Records) == 0 {
			return nil, eris.Errorf("pipeline: no usable records for required category %s (looked in %s)", category, dir)
		}
		datasets[category] = normalized
	}

	bio := datasets[model.CategoryBiometric]
	demo := datasets[model.CategoryDemographic]
	enrol := datasets[model.CategoryEnrolment]

	// Geography from enrolment, the most authoritative source.
	geo := geography.Resolve(enrol)

	// Aggregate and score.
	volumes := aggregate.Combine(bio, demo, enrol)
	compliance := metrics.ComputeCompliance(bio, enrol)
	trends := metrics.MonthlyTrend(p.cfg.Input.DateLayout, bio, demo, enrol)

	// Compile the three tables.
	districts := compile.Districts(volumes, compliance, geo)
	states := compile.States(districts)

	result := &model.Result{Districts: districts, States: states, Trends: trends}

	log.Info("pipeline complete",
		zap.Int("districts", len(districts)),
		zap.Int("states", len(states)),
		zap.Int("trend_points", len(trends)),
	)

	if p.store != nil {
		if err := p.persist(ctx, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// persist records the run and its tables; tables are write-once per run.
func (p *Pipeline) persist(ctx context.Context, result *model.Result) error {
	run, err := p.store.CreateRun(ctx)
	if err != nil {
		return eris.Wrap(err, "pipeline: create run")
	}

	if err := p.store.SaveResult(ctx, run.ID, result); err != nil {
		if failErr := p.store.FailRun(ctx, run.ID); failErr != nil {
			zap.L().Warn("mark run failed", zap.String("run_id", run.ID), zap.Error(failErr))
		}
		return eris.Wrap(err, "pipeline: save result")
	}

	if err := p.store.CompleteRun(ctx, run.ID, result); err != nil {
		return eris.Wrap(err, "pipeline: complete run")
	}

	zap.L().Info("run persisted", zap.String("run_id", run.ID))
	return nil
}
