package placement

import "github.com/guimove/powerfit/internal/model"

// Unplaced marks a workload that no host could accept.
const Unplaced = -1

// capacityEpsilon absorbs float drift between summed usage and subtracted remaining capacity.
const capacityEpsilon = 1e-9

// Assignment maps workload index to host index.
type Assignment []int

// Clone returns an independent copy of a.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	copy(out, a)
	return out
}

// Hamming returns the number of positions at which a and b differ.
func Hamming(a, b Assignment) int {
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

func fits(demand, remaining model.Resources) bool {
	return demand.CPU <= remaining.CPU+capacityEpsilon &&
		demand.Memory <= remaining.Memory+capacityEpsilon
}

// usageOf sums demand per host. Unplaced workloads are skipped; the second
// return is false when any index is out of range.
func usageOf(inv model.Inventory, a Assignment) ([]model.Resources, bool) {
	usage := make([]model.Resources, len(inv.Hosts))
	ok := true
	for v, h := range a {
		if h == Unplaced {
			continue
		}
		if h < 0 || h >= len(usage) {
			ok = false
			continue
		}
		usage[h] = usage[h].Add(inv.Workloads[v].Demand)
	}
	return usage, ok
}

// Usage returns the summed demand on every host under assignment a.
func Usage(inv model.Inventory, a Assignment) []model.Resources {
	usage, _ := usageOf(inv, a)
	return usage
}

// IsFeasible reports whether no host is over capacity on any dimension.
// Unplaced workloads do not count against capacity; any other out-of-range
// index makes the assignment infeasible.
func IsFeasible(inv model.Inventory, a Assignment) bool {
	usage, ok := usageOf(inv, a)
	if !ok {
		return false
	}
	for h := range inv.Hosts {
		if !fits(usage[h], inv.Hosts[h].Capacity) {
			return false
		}
	}
	return true
}

// RepairResult is the outcome of Repair. Feasible is false when at least one
// workload could not be relocated and was left on its original host.
type RepairResult struct {
	Assignment Assignment
	Feasible   bool

	// Workload indexes that were moved to another host.
	Moved []int
	// Workload indexes that fit nowhere and kept their assignment.
	Stuck []int
}

// Repair replays the assignment in workload order, letting earlier workloads
// claim capacity first. A workload that no longer fits on its host moves to the
// lowest-index host with enough remaining capacity; if there is none it stays
// where it is. The input is not modified. Repair is idempotent.
func Repair(inv model.Inventory, a Assignment) RepairResult {
	out := a.Clone()
	remaining := make([]model.Resources, len(inv.Hosts))
	for h := range inv.Hosts {
		remaining[h] = inv.Hosts[h].Capacity
	}

	var rr RepairResult
	for v, h := range out {
		demand := inv.Workloads[v].Demand
		if h >= 0 && h < len(remaining) && fits(demand, remaining[h]) {
			remaining[h] = remaining[h].Sub(demand)
			continue
		}

		target := firstFitting(demand, remaining)
		if target < 0 {
			rr.Stuck = append(rr.Stuck, v)
			continue
		}
		out[v] = target
		remaining[target] = remaining[target].Sub(demand)
		rr.Moved = append(rr.Moved, v)
	}

	rr.Assignment = out
	rr.Feasible = len(rr.Stuck) == 0 && IsFeasible(inv, out)
	return rr
}

// firstFitting returns the lowest index whose remaining capacity holds demand, or -1.
func firstFitting(demand model.Resources, remaining []model.Resources) int {
	for h := range remaining {
		if fits(demand, remaining[h]) {
			return h
		}
	}
	return -1
}
