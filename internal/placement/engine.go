package placement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/guimove/powerfit/internal/model"
)

var (
	ErrNoPlacers = errors.New("no placement strategies provided")
	ErrAllFailed = errors.New("all placement strategies failed")
)

// Engine runs several placers over one inventory and ranks their results
// against the first-fit baseline.
type Engine struct {
	Placers     []Placer
	Scorer      *Scorer
	Parallelism int
	Logger      logrus.FieldLogger
}

// NewEngine creates an engine over the given placers.
func NewEngine(scorer *Scorer, placers ...Placer) *Engine {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Engine{
		Placers:     placers,
		Scorer:      scorer,
		Parallelism: runtime.NumCPU(),
		Logger:      l,
	}
}

// RunAll executes every placer and returns ranked recommendations. A placer
// that fails is logged and skipped unless the context was cancelled.
func (e *Engine) RunAll(ctx context.Context, inv model.Inventory) ([]model.Recommendation, error) {
	if len(e.Placers) == 0 {
		return nil, ErrNoPlacers
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	results := make([]*model.Placement, len(e.Placers))
	errs := make([]error, len(e.Placers))

	g, gctx := errgroup.WithContext(ctx)
	if e.Parallelism > 0 {
		g.SetLimit(e.Parallelism)
	}
	for i, p := range e.Placers {
		g.Go(func() error {
			res, err := p.Place(gctx, inv)
			if err != nil {
				errs[i] = fmt.Errorf("placer %q: %w", p.Name(), err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	var successful []*model.Placement
	for i, err := range errs {
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.Logger.WithError(err).Warn("placement strategy failed")
			continue
		}
		successful = append(successful, results[i])
	}
	if len(successful) == 0 {
		return nil, errors.Join(append([]error{ErrAllFailed}, errs...)...)
	}

	baseline, err := (&FirstFit{}).Place(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}

	return e.Scorer.RankResults(successful, baseline), nil
}
