package placement

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/guimove/powerfit/internal/model"
)

// BestFitDecreasing places the most demanding workloads first, each on the
// already powered-on host it fills most tightly. A new host is only switched on
// when no active host fits, and then the one with the lowest idle draw wins.
type BestFitDecreasing struct{}

// Name returns the strategy name.
func (b *BestFitDecreasing) Name() string { return "best-fit-decreasing" }

// hostState tracks the allocation state of a host during packing.
type hostState struct {
	host      *model.Host
	remaining model.Resources
	active    bool
}

// Place assigns workloads using BFD. Workloads that fit nowhere are reported unplaced.
func (b *BestFitDecreasing) Place(ctx context.Context, inv model.Inventory) (*model.Placement, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	hosts := make([]hostState, len(inv.Hosts))
	for h := range inv.Hosts {
		hosts[h] = hostState{host: &inv.Hosts[h], remaining: inv.Hosts[h].Capacity}
	}

	order := sortByDominance(inv)
	a := make(Assignment, len(inv.Workloads))

	for _, v := range order {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		demand := inv.Workloads[v].Demand

		// Find the best-fitting active host
		bestIdx := -1
		bestScore := math.MaxFloat64
		for h := range hosts {
			if !hosts[h].active || !fits(demand, hosts[h].remaining) {
				continue
			}
			score := compositeRemaining(&hosts[h], demand)
			if score < bestScore {
				bestScore = score
				bestIdx = h
			}
		}

		// No active host fits, power on the cheapest idle one
		if bestIdx < 0 {
			bestIdx = selectHostToOpen(hosts, demand)
		}
		if bestIdx < 0 {
			a[v] = Unplaced
			continue
		}

		hosts[bestIdx].active = true
		hosts[bestIdx].remaining = hosts[bestIdx].remaining.Sub(demand)
		a[v] = bestIdx
	}

	p := Breakdown(inv, a, b.Name())
	p.Duration = time.Since(start)
	return p, nil
}

// sortByDominance returns workload indexes with the most demanding first.
// Dominance = max(cpuFraction, memFraction) relative to the largest host.
func sortByDominance(inv model.Inventory) []int {
	var largest model.Resources
	for h := range inv.Hosts {
		largest.CPU = math.Max(largest.CPU, inv.Hosts[h].Capacity.CPU)
		largest.Memory = math.Max(largest.Memory, inv.Hosts[h].Capacity.Memory)
	}

	order := make([]int, len(inv.Workloads))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		di := inv.Workloads[order[i]].Demand.Utilization(largest)
		dj := inv.Workloads[order[j]].Demand.Utilization(largest)
		return di > dj
	})
	return order
}

// compositeRemaining returns how much room a host would have left after
// accepting demand. Lower = tighter fit = preferred.
func compositeRemaining(hs *hostState, demand model.Resources) float64 {
	capacity := hs.host.Capacity
	after := hs.remaining.Sub(demand)
	cpuAfter := after.CPU / capacity.CPU
	if capacity.Memory == 0 {
		return cpuAfter
	}
	memAfter := after.Memory / capacity.Memory
	// Euclidean distance from origin, penalizes imbalance
	return math.Sqrt(cpuAfter*cpuAfter + memAfter*memAfter)
}

// selectHostToOpen picks the inactive host with the lowest idle draw that can hold demand.
// Ties go to the lower index.
func selectHostToOpen(hosts []hostState, demand model.Resources) int {
	best := -1
	bestIdle := math.MaxFloat64
	for h := range hosts {
		if hosts[h].active || !fits(demand, hosts[h].remaining) {
			continue
		}
		if hosts[h].host.IdleWatts < bestIdle {
			bestIdle = hosts[h].host.IdleWatts
			best = h
		}
	}
	return best
}
