package model

import "time"

// HostReport is the per-host breakdown of a placement.
type HostReport struct {
	HostID      string    `json:"host_id"`
	Capacity    Resources `json:"capacity"`
	Usage       Resources `json:"usage"`
	Utilization float64   `json:"utilization"` // dominant fraction, may exceed 1.0 when over-subscribed
	PowerWatts  float64   `json:"power_watts"`
	Workloads   []string  `json:"workloads,omitempty"`
}

// Active reports whether the host carries any load (and is therefore powered on).
func (hr HostReport) Active() bool {
	return !hr.Usage.IsZero()
}

// Overloaded reports whether usage exceeds capacity on any dimension.
func (hr HostReport) Overloaded() bool {
	return !hr.Usage.FitsIn(hr.Capacity)
}

// CPUWaste returns unused CPU on this host.
func (hr HostReport) CPUWaste() float64 {
	return hr.Capacity.CPU - hr.Usage.CPU
}

// MemWaste returns unused memory on this host.
func (hr HostReport) MemWaste() float64 {
	return hr.Capacity.Memory - hr.Usage.Memory
}

// FragmentationReport details resource waste patterns across active hosts.
type FragmentationReport struct {
	// Stranded: one dimension nearly full, the other underused
	StrandedCPU    float64 `json:"stranded_cpu"`
	StrandedMemory float64 `json:"stranded_memory"`

	// Fraction of active hosts below 50% dominant utilization
	UnderutilizedHostFraction float64 `json:"underutilized_host_fraction"`

	// 1.0 = perfectly balanced CPU/mem ratio across active hosts
	ResourceBalanceScore float64 `json:"resource_balance_score"`
}

// Placement is the outcome of a single placement or optimization run.
type Placement struct {
	Strategy string `json:"strategy"`

	// Assignment[v] is the host index of workload v, -1 when unplaced.
	Assignment []int        `json:"assignment"`
	Hosts      []HostReport `json:"hosts"`

	TotalPowerWatts float64 `json:"total_power_watts"`
	ActiveHosts     int     `json:"active_hosts"`

	// Feasible is false when any host is over capacity. Only the optimizer can
	// emit such a placement, when repair could not relocate a workload.
	Feasible bool `json:"feasible"`

	// Workloads the greedy placers could not fit anywhere.
	Unplaced []string `json:"unplaced,omitempty"`

	// Best total power after seeding and after every generation (optimizer only).
	History     []float64 `json:"history,omitempty"`
	Generations int       `json:"generations,omitempty"`

	Fragmentation FragmentationReport `json:"fragmentation"`
	Duration      time.Duration       `json:"duration"`
}

// AvgUtilization returns the mean dominant utilization over active hosts.
func (p Placement) AvgUtilization() float64 {
	if p.ActiveHosts == 0 {
		return 0
	}
	var sum float64
	for i := range p.Hosts {
		if p.Hosts[i].Active() {
			sum += p.Hosts[i].Utilization
		}
	}
	return sum / float64(p.ActiveHosts)
}

// ScoringWeights configures the relative importance of ranking dimensions.
type ScoringWeights struct {
	Power         float64 `mapstructure:"power" yaml:"power" json:"power"`
	Consolidation float64 `mapstructure:"consolidation" yaml:"consolidation" json:"consolidation"`
	Balance       float64 `mapstructure:"balance" yaml:"balance" json:"balance"`
}

// DefaultScoringWeights returns the default scoring weights.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Power:         0.70,
		Consolidation: 0.20,
		Balance:       0.10,
	}
}

// Recommendation is a ranked placement presented to the user.
type Recommendation struct {
	Rank      int       `json:"rank"`
	Placement Placement `json:"placement"`

	// Power analysis
	PowerVsBaseline float64 `json:"power_vs_baseline_pct"` // Negative = savings
	SavedWatts      float64 `json:"saved_watts"`

	// Scores (0-100)
	OverallScore       float64 `json:"overall_score"`
	PowerScore         float64 `json:"power_score"`
	ConsolidationScore float64 `json:"consolidation_score"`
	BalanceScore       float64 `json:"balance_score"`

	Rationale string   `json:"rationale"`
	Warnings  []string `json:"warnings,omitempty"`
}
