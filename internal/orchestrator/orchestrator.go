package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/guimove/powerfit/internal/config"
	"github.com/guimove/powerfit/internal/inventory"
	"github.com/guimove/powerfit/internal/logger"
	"github.com/guimove/powerfit/internal/metrics"
	"github.com/guimove/powerfit/internal/model"
	"github.com/guimove/powerfit/internal/placement"
	"github.com/guimove/powerfit/internal/report"
)

// Orchestrator coordinates the end-to-end placement pipeline.
type Orchestrator struct {
	Source   inventory.Source
	Config   config.Config
	Writer   io.Writer
	Logger   logrus.FieldLogger
	Recorder *metrics.Recorder
}

// New creates an orchestrator with the given dependencies.
func New(source inventory.Source, cfg config.Config, log logrus.FieldLogger) *Orchestrator {
	if log == nil {
		log = logger.Discard()
	}
	return &Orchestrator{
		Source: source,
		Config: cfg,
		Writer: os.Stdout,
		Logger: log,
	}
}

// Load fetches the inventory, applies the default power model and validates it.
func (o *Orchestrator) Load(ctx context.Context) (model.Inventory, error) {
	log := o.Logger.WithField("source", o.Source.BackendType())
	log.Info("loading inventory")

	if err := o.Source.Ping(ctx); err != nil {
		return model.Inventory{}, fmt.Errorf("inventory source: %w", err)
	}
	loaded, err := o.Source.Load(ctx)
	if err != nil {
		return model.Inventory{}, fmt.Errorf("loading inventory: %w", err)
	}

	inv := loaded.WithPowerDefaults(o.Config.Power.IdleWatts, o.Config.Power.BusyWatts)
	if err := inv.Validate(); err != nil {
		return model.Inventory{}, fmt.Errorf("invalid inventory: %w", err)
	}

	log.WithFields(logrus.Fields{
		"workloads":  len(inv.Workloads),
		"hosts":      len(inv.Hosts),
		"dimensions": inv.Dimensions(),
	}).Info("inventory loaded")
	return inv, nil
}

// Place runs the configured greedy strategy.
func (o *Orchestrator) Place(ctx context.Context) ([]model.Recommendation, error) {
	inv, err := o.Load(ctx)
	if err != nil {
		return nil, err
	}

	var placer placement.Placer
	switch o.Config.Placement.Strategy {
	case "best-fit-decreasing":
		placer = &placement.BestFitDecreasing{}
	default:
		placer = &placement.FirstFit{}
	}

	o.Logger.WithField("strategy", placer.Name()).Info("placing workloads")
	p, err := placer.Place(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("placing workloads: %w", err)
	}

	recs, err := o.rank(ctx, inv, p)
	if err != nil {
		return nil, err
	}
	return recs, o.finish(ctx, "place", inv, recs, report.ReportMeta{})
}

// Optimize runs the firefly search.
func (o *Orchestrator) Optimize(ctx context.Context) ([]model.Recommendation, error) {
	inv, err := o.Load(ctx)
	if err != nil {
		return nil, err
	}

	opt, seed := o.newOptimizer(inv)
	o.Logger.WithFields(logrus.Fields{
		"seed":        seed,
		"population":  opt.Params.PopulationSize,
		"generations": opt.Params.Generations,
		"update_mode": opt.Params.UpdateMode,
	}).Info("optimizing placement")

	p, err := opt.Place(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("optimizing placement: %w", err)
	}

	recs, err := o.rank(ctx, inv, p)
	if err != nil {
		return nil, err
	}
	return recs, o.finish(ctx, "optimize", inv, recs, report.ReportMeta{Seed: seed, UpdateMode: opt.Params.UpdateMode})
}

// Compare runs both greedy placers and the optimizer and ranks them.
func (o *Orchestrator) Compare(ctx context.Context) ([]model.Recommendation, error) {
	inv, err := o.Load(ctx)
	if err != nil {
		return nil, err
	}

	opt, seed := o.newOptimizer(inv)
	engine := placement.NewEngine(placement.NewScorer(o.Config.Scoring.Weights),
		&placement.FirstFit{}, &placement.BestFitDecreasing{}, opt)
	engine.Parallelism = opt.Params.Parallelism
	engine.Logger = o.Logger

	o.Logger.WithFields(logrus.Fields{
		"strategies": len(engine.Placers),
		"seed":       seed,
	}).Info("comparing strategies")

	recs, err := engine.RunAll(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("comparing strategies: %w", err)
	}
	return recs, o.finish(ctx, "compare", inv, recs, report.ReportMeta{Seed: seed, UpdateMode: opt.Params.UpdateMode})
}

// recorder returns the metrics recorder, creating one labelled with the
// inventory name on first use.
func (o *Orchestrator) recorder(inv model.Inventory) *metrics.Recorder {
	if o.Recorder == nil {
		var opts []metrics.RecorderOption
		if inv.Name != "" {
			opts = append(opts, metrics.WithInventory(inv.Name))
		}
		o.Recorder = metrics.NewRecorder(opts...)
	}
	return o.Recorder
}

func (o *Orchestrator) newOptimizer(inv model.Inventory) (*placement.Optimizer, uint64) {
	seed := o.Config.Optimizer.ResolveSeed()
	opt := placement.NewOptimizer(o.Config.Optimizer.Params(), placement.NewRand(seed))
	opt.Logger = o.Logger
	opt.Observer = o.recorder(inv)
	return opt, seed
}

// rank scores a single placement against the first-fit baseline.
func (o *Orchestrator) rank(ctx context.Context, inv model.Inventory, p *model.Placement) ([]model.Recommendation, error) {
	baseline, err := (&placement.FirstFit{}).Place(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	return placement.NewScorer(o.Config.Scoring.Weights).RankResults([]*model.Placement{p}, baseline), nil
}

// finish logs problems, records metrics and writes the report.
func (o *Orchestrator) finish(ctx context.Context, command string, inv model.Inventory, recs []model.Recommendation, extra report.ReportMeta) error {
	rec := o.recorder(inv)
	for i := range recs {
		p := &recs[i].Placement
		rec.ObservePlacement(p)

		log := o.Logger.WithFields(logrus.Fields{
			"strategy": p.Strategy,
			"power":    fmt.Sprintf("%.2fW", p.TotalPowerWatts),
		})
		if !p.Feasible {
			log.Warn("placement is infeasible: some hosts are over capacity")
		}
		if len(p.Unplaced) > 0 {
			log.WithField("unplaced", p.Unplaced).Warn("workloads could not be placed")
		}
		log.WithField("active_hosts", p.ActiveHosts).Debug("placement complete")
	}

	reporter, err := report.NewReporter(o.Config.Output.Format, o.Writer)
	if err != nil {
		return err
	}
	meta := report.NewMeta(command, inv)
	meta.Seed = extra.Seed
	meta.UpdateMode = extra.UpdateMode
	if err := reporter.Report(ctx, recs, meta); err != nil {
		return fmt.Errorf("generating report: %w", err)
	}

	if path := o.Config.Metrics.File; path != "" {
		if err := rec.WriteFile(path); err != nil {
			return err
		}
		o.Logger.WithField("file", path).Info("metrics written")
	}
	return nil
}
