package model

import "math"

// Resources is a demand or capacity vector. CPU is always present; Memory is
// optional and ignored for inventories where every memory value is zero.
// Units are defined by the inventory source (percent, millicores, MiB, ...).
type Resources struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory,omitempty"`
}

// Add returns the component-wise sum of two Resources values.
func (r Resources) Add(other Resources) Resources {
	return Resources{
		CPU:    r.CPU + other.CPU,
		Memory: r.Memory + other.Memory,
	}
}

// Sub returns the component-wise difference of two Resources values.
func (r Resources) Sub(other Resources) Resources {
	return Resources{
		CPU:    r.CPU - other.CPU,
		Memory: r.Memory - other.Memory,
	}
}

// FitsIn returns true if this quantity fits within the given capacity on every dimension.
func (r Resources) FitsIn(capacity Resources) bool {
	return r.CPU <= capacity.CPU && r.Memory <= capacity.Memory
}

// IsZero returns true if both dimensions are zero.
func (r Resources) IsZero() bool {
	return r.CPU == 0 && r.Memory == 0
}

// Utilization returns the dominant usage fraction of r against capacity:
// max over dimensions of r[d]/capacity[d]. Dimensions with zero capacity are skipped.
func (r Resources) Utilization(capacity Resources) float64 {
	u := 0.0
	if capacity.CPU > 0 {
		u = r.CPU / capacity.CPU
	}
	if capacity.Memory > 0 {
		u = math.Max(u, r.Memory/capacity.Memory)
	}
	return u
}

// Workload is a unit of demand to be placed (a VM, a pod, a container).
type Workload struct {
	ID     string    `json:"id"`
	Demand Resources `json:"demand"`

	// Where the workload was discovered, if anywhere (k8s namespace, vSphere cluster).
	Group string `json:"group,omitempty"`

	// Host the workload currently runs on, when the source knows it.
	CurrentHost string `json:"current_host,omitempty"`
}
