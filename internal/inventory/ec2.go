package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/guimove/powerfit/internal/aws"
	"github.com/guimove/powerfit/internal/model"
)

var ErrNoHostSpecs = errors.New("ec2 source needs at least one host spec")

// EC2HostSpec asks for Count hosts of one instance type.
type EC2HostSpec struct {
	Type  string `mapstructure:"type" yaml:"type" json:"type"`
	Count int    `mapstructure:"count" yaml:"count" json:"count"`
}

// EC2Options configures the EC2 host pool.
type EC2Options struct {
	Hosts []EC2HostSpec

	// Workloads are read from this file; its hosts, if any, are ignored.
	// Demands must use vCPUs and MiB.
	WorkloadsFile string

	// Per-vCPU draw; zero leaves host power to the configured defaults.
	IdleWattsPerVCPU float64
	BusyWattsPerVCPU float64
}

// EC2Source sizes hosts from EC2 instance types and reads workloads from a file.
type EC2Source struct {
	catalog   aws.HostCatalog
	workloads Source
	opts      EC2Options
}

// NewEC2Source creates a source over a host catalog.
func NewEC2Source(catalog aws.HostCatalog, opts EC2Options) *EC2Source {
	return &EC2Source{
		catalog:   catalog,
		workloads: NewFileSource(opts.WorkloadsFile),
		opts:      opts,
	}
}

func (e *EC2Source) BackendType() string { return BackendEC2 }

func (e *EC2Source) Ping(ctx context.Context) error {
	if len(e.opts.Hosts) == 0 {
		return ErrNoHostSpecs
	}
	return e.workloads.Ping(ctx)
}

// Load resolves the instance types and expands each spec into Count hosts
// named <type>-<n>.
func (e *EC2Source) Load(ctx context.Context) (*model.Inventory, error) {
	if len(e.opts.Hosts) == 0 {
		return nil, ErrNoHostSpecs
	}

	names := make([]string, len(e.opts.Hosts))
	for i, spec := range e.opts.Hosts {
		if spec.Count < 1 {
			return nil, fmt.Errorf("host spec %s: count must be positive, got %d", spec.Type, spec.Count)
		}
		names[i] = spec.Type
	}

	types, err := e.catalog.InstanceTypes(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("resolving instance types: %w", err)
	}

	inv, err := e.workloads.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading workloads: %w", err)
	}
	inv.Source = BackendEC2
	inv.Name = e.catalog.Region()
	inv.Hosts = nil

	for i, spec := range e.opts.Hosts {
		it := types[i]
		vcpus := float64(it.VCPUs)
		for n := 1; n <= spec.Count; n++ {
			inv.Hosts = append(inv.Hosts, model.Host{
				ID:        fmt.Sprintf("%s-%d", it.Name, n),
				Capacity:  model.Resources{CPU: vcpus, Memory: float64(it.MemoryMiB)},
				IdleWatts: e.opts.IdleWattsPerVCPU * vcpus,
				BusyWatts: e.opts.BusyWattsPerVCPU * vcpus,
				Kind:      it.Name,
			})
		}
	}
	return inv, nil
}
