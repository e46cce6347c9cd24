package placement

import (
	"github.com/guimove/powerfit/internal/model"
)

// Seeding strategies for the initial population.
const (
	SeedRoundRobin = "round-robin"
	SeedRandom     = "random"
)

// Firefly is one candidate assignment with its fitness.
type Firefly struct {
	Assignment Assignment
	Eval       Evaluation
}

func (f Firefly) clone() Firefly {
	return Firefly{Assignment: f.Assignment.Clone(), Eval: f.Eval}
}

// Population is the set of candidates owned by one optimizer run.
type Population struct {
	Fireflies []Firefly
}

// Len returns the population size.
func (p *Population) Len() int { return len(p.Fireflies) }

// Best returns the index of the brightest firefly (the first one on ties).
func (p *Population) Best() int {
	best := 0
	for i := 1; i < len(p.Fireflies); i++ {
		if p.Fireflies[i].Eval.Brighter(p.Fireflies[best].Eval) {
			best = i
		}
	}
	return best
}

// Snapshot returns a deep copy of the population.
func (p *Population) Snapshot() *Population {
	out := &Population{Fireflies: make([]Firefly, len(p.Fireflies))}
	for i := range p.Fireflies {
		out.Fireflies[i] = p.Fireflies[i].clone()
	}
	return out
}

// seedPopulation builds and evaluates the initial population. Every seed is
// repaired so the search starts from feasible candidates wherever possible.
func seedPopulation(inv model.Inventory, params Params, rng Rand) *Population {
	pop := &Population{Fireflies: make([]Firefly, params.PopulationSize)}

	start := 0
	if params.GreedySeed {
		if a, unplaced := FirstFitAssign(inv); len(unplaced) == 0 {
			pop.Fireflies[0] = Firefly{Assignment: a, Eval: Evaluate(inv, a)}
			start = 1
		}
	}

	for i := start; i < len(pop.Fireflies); i++ {
		var a Assignment
		switch params.Seeding {
		case SeedRandom:
			a = randomFeasible(inv, rng, params.MaxSeedAttempts)
		default:
			a = roundRobin(len(inv.Workloads), len(inv.Hosts))
		}
		a = Repair(inv, a).Assignment
		pop.Fireflies[i] = Firefly{Assignment: a, Eval: Evaluate(inv, a)}
	}
	return pop
}

// roundRobin cycles workloads across hosts, ignoring capacity.
func roundRobin(workloads, hosts int) Assignment {
	a := make(Assignment, workloads)
	for v := range a {
		a[v] = v % hosts
	}
	return a
}

// randomAssignment draws a host uniformly for every workload.
func randomAssignment(workloads, hosts int, rng Rand) Assignment {
	a := make(Assignment, workloads)
	for v := range a {
		a[v] = rng.IntN(hosts)
	}
	return a
}

// randomFeasible draws random assignments until one is feasible, giving up
// after attempts draws and returning the last one (callers repair it).
func randomFeasible(inv model.Inventory, rng Rand, attempts int) Assignment {
	if attempts < 1 {
		attempts = 1
	}
	var a Assignment
	for n := 0; n < attempts; n++ {
		a = randomAssignment(len(inv.Workloads), len(inv.Hosts), rng)
		if IsFeasible(inv, a) {
			return a
		}
	}
	return a
}
