package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoHosts         = errors.New("inventory has no hosts")
	ErrNoWorkloads     = errors.New("inventory has no workloads")
	ErrInvalidCapacity = errors.New("host capacity must be positive")
	ErrInvalidDemand   = errors.New("workload demand must be non-negative")
	ErrInvalidPower    = errors.New("host power must satisfy 0 <= idle <= busy")
	ErrDuplicateID     = errors.New("duplicate identifier")
)

// Inventory is the input of a placement run: an ordered list of workloads and
// an ordered list of hosts. Both are read-only once loaded.
type Inventory struct {
	// When and where the inventory was taken
	CollectedAt time.Time `json:"collected_at,omitempty"`
	Source      string    `json:"source,omitempty"`
	Name        string    `json:"name,omitempty"`

	Workloads []Workload `json:"workloads"`
	Hosts     []Host     `json:"hosts"`
}

// Dimensions returns 2 when any workload or host carries a memory value, 1 otherwise.
func (inv Inventory) Dimensions() int {
	for i := range inv.Hosts {
		if inv.Hosts[i].Capacity.Memory != 0 {
			return 2
		}
	}
	for i := range inv.Workloads {
		if inv.Workloads[i].Demand.Memory != 0 {
			return 2
		}
	}
	return 1
}

// TotalDemand returns the sum of all workload demands.
func (inv Inventory) TotalDemand() Resources {
	var total Resources
	for i := range inv.Workloads {
		total = total.Add(inv.Workloads[i].Demand)
	}
	return total
}

// TotalCapacity returns the sum of all host capacities.
func (inv Inventory) TotalCapacity() Resources {
	var total Resources
	for i := range inv.Hosts {
		total = total.Add(inv.Hosts[i].Capacity)
	}
	return total
}

// WithPowerDefaults returns a copy of the inventory where every host without
// explicit power values uses idle/busy.
func (inv Inventory) WithPowerDefaults(idle, busy float64) Inventory {
	out := inv
	out.Hosts = make([]Host, len(inv.Hosts))
	for i := range inv.Hosts {
		out.Hosts[i] = inv.Hosts[i].WithPowerDefaults(idle, busy)
	}
	return out
}

// Validate rejects inventories the placers cannot run on. Hosts are expected to
// carry power values already (see WithPowerDefaults).
func (inv Inventory) Validate() error {
	if len(inv.Hosts) == 0 {
		return ErrNoHosts
	}
	if len(inv.Workloads) == 0 {
		return ErrNoWorkloads
	}

	twoD := inv.Dimensions() == 2
	seen := make(map[string]bool, len(inv.Hosts))
	for i, h := range inv.Hosts {
		if h.Capacity.CPU <= 0 || h.Capacity.Memory < 0 || (twoD && h.Capacity.Memory <= 0) {
			return fmt.Errorf("host %d (%s): %w, got %+v", i, h.ID, ErrInvalidCapacity, h.Capacity)
		}
		if h.IdleWatts < 0 || h.BusyWatts < h.IdleWatts {
			return fmt.Errorf("host %d (%s): %w, got idle=%v busy=%v", i, h.ID, ErrInvalidPower, h.IdleWatts, h.BusyWatts)
		}
		if h.ID != "" {
			if seen[h.ID] {
				return fmt.Errorf("host %q: %w", h.ID, ErrDuplicateID)
			}
			seen[h.ID] = true
		}
	}

	seen = make(map[string]bool, len(inv.Workloads))
	for i, w := range inv.Workloads {
		if w.Demand.CPU < 0 || w.Demand.Memory < 0 {
			return fmt.Errorf("workload %d (%s): %w, got %+v", i, w.ID, ErrInvalidDemand, w.Demand)
		}
		if w.ID != "" {
			if seen[w.ID] {
				return fmt.Errorf("workload %q: %w", w.ID, ErrDuplicateID)
			}
			seen[w.ID] = true
		}
	}
	return nil
}

// Normalize fills missing identifiers with VM<n>/PM<n> labels, one-based.
func (inv *Inventory) Normalize() {
	for i := range inv.Workloads {
		if inv.Workloads[i].ID == "" {
			inv.Workloads[i].ID = fmt.Sprintf("VM%d", i+1)
		}
	}
	for i := range inv.Hosts {
		if inv.Hosts[i].ID == "" {
			inv.Hosts[i].ID = fmt.Sprintf("PM%d", i+1)
		}
	}
}
