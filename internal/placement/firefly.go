package placement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/guimove/powerfit/internal/model"
)

// Update modes for a generation.
const (
	// UpdateSequential applies every accepted move immediately, so later pairs
	// in the same generation see the new assignment and fitness.
	UpdateSequential = "sequential"
	// UpdateSnapshot compares every mover against the population as it was at
	// the start of the generation and commits all moves at the end.
	UpdateSnapshot = "snapshot"
)

var ErrInvalidParams = errors.New("invalid optimizer parameters")

// Rand is the random source driving the search. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
	Uint64() uint64
}

// NewRand returns a seeded source for the optimizer.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Params configures the firefly search.
type Params struct {
	Alpha          float64 // probability of a random host per position
	Beta0          float64 // attractiveness at distance 0
	Gamma          float64 // light absorption
	PopulationSize int
	Generations    int

	Seeding         string // round-robin or random
	GreedySeed      bool   // seed one firefly with the first-fit assignment when it places everything
	MaxSeedAttempts int    // random seeding draws before falling back to repair

	MutationRate float64 // probability of one feasibility-preserving move per candidate
	UpdateMode   string  // sequential or snapshot
	Parallelism  int     // snapshot-mode workers
}

// DefaultParams returns the reference parameters.
func DefaultParams() Params {
	return Params{
		Alpha:           0.2,
		Beta0:           1.0,
		Gamma:           1.0,
		PopulationSize:  20,
		Generations:     50,
		Seeding:         SeedRoundRobin,
		GreedySeed:      true,
		MaxSeedAttempts: 1000,
		UpdateMode:      UpdateSequential,
		Parallelism:     runtime.NumCPU(),
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	switch {
	case p.Alpha < 0 || p.Alpha > 1:
		return fmt.Errorf("%w: alpha must be in [0,1], got %v", ErrInvalidParams, p.Alpha)
	case p.Beta0 < 0:
		return fmt.Errorf("%w: beta0 must be non-negative, got %v", ErrInvalidParams, p.Beta0)
	case p.Gamma < 0:
		return fmt.Errorf("%w: gamma must be non-negative, got %v", ErrInvalidParams, p.Gamma)
	case p.PopulationSize < 1:
		return fmt.Errorf("%w: population must be at least 1, got %d", ErrInvalidParams, p.PopulationSize)
	case p.Generations < 0:
		return fmt.Errorf("%w: generations must be non-negative, got %d", ErrInvalidParams, p.Generations)
	case p.MutationRate < 0 || p.MutationRate > 1:
		return fmt.Errorf("%w: mutation rate must be in [0,1], got %v", ErrInvalidParams, p.MutationRate)
	}
	if p.Seeding != SeedRoundRobin && p.Seeding != SeedRandom {
		return fmt.Errorf("%w: seeding must be %s or %s, got %q", ErrInvalidParams, SeedRoundRobin, SeedRandom, p.Seeding)
	}
	if p.UpdateMode != UpdateSequential && p.UpdateMode != UpdateSnapshot {
		return fmt.Errorf("%w: update mode must be %s or %s, got %q", ErrInvalidParams, UpdateSequential, UpdateSnapshot, p.UpdateMode)
	}
	return nil
}

// Observer receives progress events from an optimizer run. Implementations
// must be safe for concurrent use: snapshot mode reports moves from several goroutines.
type Observer interface {
	MoveEvaluated(accepted, feasible bool)
	GenerationDone(generation int, best Evaluation)
}

type nopObserver struct{}

func (nopObserver) MoveEvaluated(bool, bool)       {}
func (nopObserver) GenerationDone(int, Evaluation) {}

// Optimizer is the discrete firefly search.
type Optimizer struct {
	Params   Params
	Rand     Rand
	Logger   logrus.FieldLogger
	Observer Observer
}

// NewOptimizer creates an optimizer with a discarding logger and no observer.
func NewOptimizer(params Params, rng Rand) *Optimizer {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Optimizer{
		Params:   params,
		Rand:     rng,
		Logger:   l,
		Observer: nopObserver{},
	}
}

// Name returns the strategy name.
func (o *Optimizer) Name() string { return "firefly" }

// Result is the outcome of an optimizer run.
type Result struct {
	Best       Firefly
	History    []float64 // best power after seeding, then after each generation
	Population *Population
}

// Place runs the search and reports the best assignment found.
func (o *Optimizer) Place(ctx context.Context, inv model.Inventory) (*model.Placement, error) {
	start := time.Now()

	res, err := o.Run(ctx, inv)
	if err != nil {
		return nil, err
	}

	p := Breakdown(inv, res.Best.Assignment, o.Name())
	p.History = res.History
	p.Generations = o.Params.Generations
	p.Duration = time.Since(start)
	return p, nil
}

// Run seeds a population and evolves it for the full generation budget. The
// context only scopes snapshot-mode workers; a run is never cut short.
func (o *Optimizer) Run(ctx context.Context, inv model.Inventory) (*Result, error) {
	if err := o.Params.Validate(); err != nil {
		return nil, err
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	if o.Rand == nil {
		return nil, fmt.Errorf("%w: no random source", ErrInvalidParams)
	}

	pop := seedPopulation(inv, o.Params, o.Rand)
	best := pop.Fireflies[pop.Best()].clone()
	history := make([]float64, 0, o.Params.Generations+1)
	history = append(history, best.Eval.PowerWatts)

	o.Logger.WithFields(logrus.Fields{
		"population": pop.Len(),
		"seeding":    o.Params.Seeding,
		"best":       best.Eval.String(),
	}).Debug("population seeded")

	for gen := 1; gen <= o.Params.Generations; gen++ {
		var err error
		switch o.Params.UpdateMode {
		case UpdateSnapshot:
			pop, err = o.snapshotGeneration(ctx, inv, pop)
		default:
			o.sequentialGeneration(inv, pop, &best)
		}
		if err != nil {
			return nil, err
		}

		if i := pop.Best(); pop.Fireflies[i].Eval.Brighter(best.Eval) {
			best = pop.Fireflies[i].clone()
		}
		history = append(history, best.Eval.PowerWatts)
		o.Observer.GenerationDone(gen, best.Eval)

		o.Logger.WithFields(logrus.Fields{
			"generation": gen,
			"best":       best.Eval.String(),
		}).Debug("generation complete")
	}

	return &Result{Best: best, History: history, Population: pop}, nil
}

// sequentialGeneration visits every ordered pair (i, j) and moves i toward j
// when j is brighter. Accepted moves are visible to the rest of the scan.
func (o *Optimizer) sequentialGeneration(inv model.Inventory, pop *Population, best *Firefly) {
	ff := pop.Fireflies
	for i := range ff {
		for j := range ff {
			if !ff[j].Eval.Brighter(ff[i].Eval) {
				continue
			}
			cand := o.move(inv, ff[i].Assignment, ff[j].Assignment, o.Rand)
			ev := Evaluate(inv, cand)
			accepted := ev.Brighter(ff[i].Eval)
			o.Observer.MoveEvaluated(accepted, ev.Feasible)
			if !accepted {
				continue
			}
			ff[i] = Firefly{Assignment: cand, Eval: ev}
			if ev.Brighter(best.Eval) {
				*best = ff[i].clone()
			}
		}
	}
}

// snapshotGeneration moves every firefly against a frozen copy of the
// population. Each mover gets its own source, seeded in index order from the
// run source, so the outcome does not depend on goroutine scheduling.
func (o *Optimizer) snapshotGeneration(ctx context.Context, inv model.Inventory, pop *Population) (*Population, error) {
	snap := pop.Snapshot()
	n := snap.Len()

	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = o.Rand.Uint64()
	}

	next := &Population{Fireflies: make([]Firefly, n)}

	g, _ := errgroup.WithContext(ctx)
	if o.Params.Parallelism > 0 {
		g.SetLimit(o.Params.Parallelism)
	}
	for i := range n {
		g.Go(func() error {
			rng := NewRand(seeds[i])
			cur := snap.Fireflies[i].clone()
			for j := range n {
				if !snap.Fireflies[j].Eval.Brighter(snap.Fireflies[i].Eval) {
					continue
				}
				cand := o.move(inv, cur.Assignment, snap.Fireflies[j].Assignment, rng)
				ev := Evaluate(inv, cand)
				accepted := ev.Brighter(cur.Eval)
				o.Observer.MoveEvaluated(accepted, ev.Feasible)
				if accepted {
					cur = Firefly{Assignment: cand, Eval: ev}
				}
			}
			next.Fireflies[i] = cur
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

// move pulls xi toward xj and returns the repaired candidate. Every position
// copies xj with the same probability beta = beta0*exp(-gamma*d^2), where d is
// the Hamming distance, and independently takes a random host with probability alpha.
func (o *Optimizer) move(inv model.Inventory, xi, xj Assignment, rng Rand) Assignment {
	hosts := len(inv.Hosts)
	d := float64(Hamming(xi, xj))
	beta := o.Params.Beta0 * math.Exp(-o.Params.Gamma*d*d)

	cand := xi.Clone()
	for v := range cand {
		if rng.Float64() < beta {
			cand[v] = xj[v]
		}
		if rng.Float64() < o.Params.Alpha {
			cand[v] = rng.IntN(hosts)
		}
	}

	if o.Params.MutationRate > 0 && rng.Float64() < o.Params.MutationRate {
		mutate(inv, cand, rng)
	}

	return Repair(inv, cand).Assignment
}

// mutate moves one random workload to the first host, in shuffled order, that
// keeps the assignment feasible. If none does the workload stays put.
func mutate(inv model.Inventory, a Assignment, rng Rand) {
	v := rng.IntN(len(a))
	original := a[v]
	for _, h := range shuffledHosts(len(inv.Hosts), rng) {
		a[v] = h
		if IsFeasible(inv, a) {
			return
		}
	}
	a[v] = original
}

func shuffledHosts(n int, rng Rand) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}
