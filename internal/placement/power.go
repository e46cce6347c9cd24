package placement

import (
	"fmt"

	"github.com/guimove/powerfit/internal/model"
)

// Power returns the draw of a single host. An unloaded host is powered off and
// draws nothing; otherwise power is interpolated linearly between idle and busy
// by the dominant utilization. The result is not clipped: an over-subscribed
// host reports more than busy watts.
func Power(usage, capacity model.Resources, idle, busy float64) float64 {
	if usage.IsZero() {
		return 0
	}
	u := usage.Utilization(capacity)
	return idle + u*(busy-idle)
}

// Evaluation is the fitness of an assignment.
type Evaluation struct {
	PowerWatts float64
	Feasible   bool
}

// Brighter reports whether e draws strictly less power than other. Feasibility
// is carried alongside and does not take part in the comparison.
func (e Evaluation) Brighter(other Evaluation) bool {
	return e.PowerWatts < other.PowerWatts
}

func (e Evaluation) String() string {
	if e.Feasible {
		return fmt.Sprintf("%.2fW", e.PowerWatts)
	}
	return fmt.Sprintf("%.2fW (infeasible)", e.PowerWatts)
}

// Evaluate computes the total power of an assignment and whether it respects
// every host's capacity.
func Evaluate(inv model.Inventory, a Assignment) Evaluation {
	usage, ok := usageOf(inv, a)
	ev := Evaluation{Feasible: ok}
	for h := range inv.Hosts {
		host := &inv.Hosts[h]
		ev.PowerWatts += Power(usage[h], host.Capacity, host.IdleWatts, host.BusyWatts)
		if !fits(usage[h], host.Capacity) {
			ev.Feasible = false
		}
	}
	return ev
}

// Breakdown builds the per-host report of an assignment.
func Breakdown(inv model.Inventory, a Assignment, strategy string) *model.Placement {
	usage, _ := usageOf(inv, a)

	p := &model.Placement{
		Strategy:   strategy,
		Assignment: a.Clone(),
		Hosts:      make([]model.HostReport, len(inv.Hosts)),
		Feasible:   true,
	}

	for h := range inv.Hosts {
		host := &inv.Hosts[h]
		hr := model.HostReport{
			HostID:     host.ID,
			Capacity:   host.Capacity,
			Usage:      usage[h],
			PowerWatts: Power(usage[h], host.Capacity, host.IdleWatts, host.BusyWatts),
		}
		if hr.Active() {
			hr.Utilization = hr.Usage.Utilization(host.Capacity)
			p.ActiveHosts++
		}
		if !fits(usage[h], host.Capacity) {
			p.Feasible = false
		}
		p.TotalPowerWatts += hr.PowerWatts
		p.Hosts[h] = hr
	}

	for v, h := range a {
		switch {
		case h == Unplaced:
			p.Unplaced = append(p.Unplaced, inv.Workloads[v].ID)
		case h >= 0 && h < len(inv.Hosts):
			p.Hosts[h].Workloads = append(p.Hosts[h].Workloads, inv.Workloads[v].ID)
		default:
			p.Feasible = false
		}
	}

	p.Fragmentation = AnalyzeFragmentation(p.Hosts)
	return p
}
