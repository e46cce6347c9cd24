package placement

import (
	"context"
	"time"

	"github.com/guimove/powerfit/internal/model"
)

// FirstFit places workloads in input order on the first host with enough
// remaining capacity. It is deterministic and serves as the power baseline.
type FirstFit struct{}

// Name returns the strategy name.
func (f *FirstFit) Name() string { return "first-fit" }

// Place runs first-fit over the inventory.
func (f *FirstFit) Place(ctx context.Context, inv model.Inventory) (*model.Placement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	a, _ := FirstFitAssign(inv)

	p := Breakdown(inv, a, f.Name())
	p.Duration = time.Since(start)
	return p, nil
}

// FirstFitAssign returns the first-fit assignment and the indexes of workloads
// that fit nowhere. Unplaced workloads get the Unplaced index and consume no capacity.
func FirstFitAssign(inv model.Inventory) (Assignment, []int) {
	remaining := make([]model.Resources, len(inv.Hosts))
	for h := range inv.Hosts {
		remaining[h] = inv.Hosts[h].Capacity
	}

	a := make(Assignment, len(inv.Workloads))
	var unplaced []int
	for v := range inv.Workloads {
		demand := inv.Workloads[v].Demand
		h := firstFitting(demand, remaining)
		if h < 0 {
			a[v] = Unplaced
			unplaced = append(unplaced, v)
			continue
		}
		a[v] = h
		remaining[h] = remaining[h].Sub(demand)
	}
	return a, unplaced
}
