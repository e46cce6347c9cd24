package inventory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/guimove/powerfit/internal/model"
)

// Range is an inclusive integer range for generated values. Max == 0 disables the dimension.
type Range struct {
	Min float64 `mapstructure:"min" yaml:"min" json:"min"`
	Max float64 `mapstructure:"max" yaml:"max" json:"max"`
}

func (r Range) enabled() bool { return r.Max > 0 }

// RandomOptions configures the random generator.
type RandomOptions struct {
	VMs      int
	PMs      int
	VMCPU    Range
	PMCPU    Range
	VMMemory Range
	PMMemory Range
	Seed     uint64
}

// DefaultRandomOptions returns ranges of the classic percentage-based setup:
// VM demand 5-20%, PM capacity 30-60%, CPU only.
func DefaultRandomOptions() RandomOptions {
	return RandomOptions{
		VMs:   10,
		PMs:   5,
		VMCPU: Range{Min: 5, Max: 20},
		PMCPU: Range{Min: 30, Max: 60},
	}
}

// RandomSource draws a synthetic inventory.
type RandomSource struct {
	opts RandomOptions
}

// NewRandomSource creates a generator.
func NewRandomSource(opts RandomOptions) *RandomSource {
	return &RandomSource{opts: opts}
}

func (r *RandomSource) Ping(context.Context) error { return r.validate() }

func (r *RandomSource) BackendType() string { return BackendRandom }

func (r *RandomSource) validate() error {
	o := r.opts
	if o.VMs < 1 || o.PMs < 1 {
		return fmt.Errorf("%w: need at least one VM and one PM, got %d and %d", ErrEmptyInput, o.VMs, o.PMs)
	}
	for name, rg := range map[string]Range{"vm cpu": o.VMCPU, "pm cpu": o.PMCPU, "vm memory": o.VMMemory, "pm memory": o.PMMemory} {
		if rg.Min < 0 || rg.Max < rg.Min {
			return fmt.Errorf("invalid %s range [%v, %v]", name, rg.Min, rg.Max)
		}
	}
	if !o.VMCPU.enabled() || !o.PMCPU.enabled() {
		return fmt.Errorf("cpu ranges must be positive")
	}
	if o.VMMemory.enabled() != o.PMMemory.enabled() {
		return fmt.Errorf("memory ranges must be set for both VMs and PMs")
	}
	return nil
}

// Load draws the inventory. The same seed always yields the same inventory.
func (r *RandomSource) Load(context.Context) (*model.Inventory, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	o := r.opts
	rng := rand.New(rand.NewPCG(o.Seed, o.Seed))

	inv := &model.Inventory{
		CollectedAt: time.Now().UTC(),
		Source:      BackendRandom,
		Name:        fmt.Sprintf("random-%d", o.Seed),
		Workloads:   make([]model.Workload, o.VMs),
		Hosts:       make([]model.Host, o.PMs),
	}
	for i := range inv.Workloads {
		inv.Workloads[i].Demand = model.Resources{CPU: draw(rng, o.VMCPU)}
		if o.VMMemory.enabled() {
			inv.Workloads[i].Demand.Memory = draw(rng, o.VMMemory)
		}
	}
	for i := range inv.Hosts {
		inv.Hosts[i].Capacity = model.Resources{CPU: draw(rng, o.PMCPU)}
		if o.PMMemory.enabled() {
			inv.Hosts[i].Capacity.Memory = draw(rng, o.PMMemory)
		}
	}
	inv.Normalize()
	return inv, nil
}

// draw returns a uniform integer in [min, max].
func draw(rng *rand.Rand, r Range) float64 {
	lo, hi := int(r.Min), int(r.Max)
	if hi <= lo {
		return float64(lo)
	}
	return float64(lo + rng.IntN(hi-lo+1))
}
