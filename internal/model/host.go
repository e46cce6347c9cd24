package model

// Default power draw of a physical host, in watts.
const (
	DefaultIdleWatts = 162.0
	DefaultBusyWatts = 215.0
)

// Host is a physical machine that accepts workloads.
type Host struct {
	ID       string    `json:"id"`
	Capacity Resources `json:"capacity"`

	// Power draw at zero and full utilization. Zero means "use the inventory defaults".
	IdleWatts float64 `json:"idle_watts,omitempty"`
	BusyWatts float64 `json:"busy_watts,omitempty"`

	// Free-form origin of the host (instance type, ESXi cluster, node pool).
	Kind string `json:"kind,omitempty"`
}

// WithPowerDefaults returns a copy of h with zero power values replaced by the given defaults.
func (h Host) WithPowerDefaults(idle, busy float64) Host {
	if h.IdleWatts == 0 {
		h.IdleWatts = idle
	}
	if h.BusyWatts == 0 {
		h.BusyWatts = busy
	}
	return h
}
