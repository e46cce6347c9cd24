package config

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/guimove/powerfit/internal/inventory"
	"github.com/guimove/powerfit/internal/model"
	"github.com/guimove/powerfit/internal/placement"
	"github.com/guimove/powerfit/internal/report"
)

// Config is the top-level configuration for PowerFit.
type Config struct {
	Power      PowerConfig      `mapstructure:"power" yaml:"power"`
	Placement  PlacementConfig  `mapstructure:"placement" yaml:"placement"`
	Optimizer  OptimizerConfig  `mapstructure:"optimizer" yaml:"optimizer"`
	Scoring    ScoringConfig    `mapstructure:"scoring" yaml:"scoring"`
	Input      InputConfig      `mapstructure:"input" yaml:"input"`
	Random     RandomConfig     `mapstructure:"random" yaml:"random"`
	Kubernetes KubernetesConfig `mapstructure:"kubernetes" yaml:"kubernetes"`
	VSphere    VSphereConfig    `mapstructure:"vsphere" yaml:"vsphere"`
	EC2        EC2Config        `mapstructure:"ec2" yaml:"ec2"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// PowerConfig holds the power model applied to hosts that declare none.
type PowerConfig struct {
	IdleWatts float64 `mapstructure:"idle_watts" yaml:"idle_watts"`
	BusyWatts float64 `mapstructure:"busy_watts" yaml:"busy_watts"`
}

type PlacementConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy"` // first-fit or best-fit-decreasing
}

type OptimizerConfig struct {
	Alpha           float64 `mapstructure:"alpha" yaml:"alpha"`
	Beta0           float64 `mapstructure:"beta0" yaml:"beta0"`
	Gamma           float64 `mapstructure:"gamma" yaml:"gamma"`
	Population      int     `mapstructure:"population" yaml:"population"`
	Generations     int     `mapstructure:"generations" yaml:"generations"`
	Seeding         string  `mapstructure:"seeding" yaml:"seeding"`
	GreedySeed      bool    `mapstructure:"greedy_seed" yaml:"greedy_seed"`
	MaxSeedAttempts int     `mapstructure:"max_seed_attempts" yaml:"max_seed_attempts"`
	MutationRate    float64 `mapstructure:"mutation_rate" yaml:"mutation_rate"`
	UpdateMode      string  `mapstructure:"update_mode" yaml:"update_mode"`
	Parallelism     int     `mapstructure:"parallelism" yaml:"parallelism"`
	Seed            uint64  `mapstructure:"seed" yaml:"seed"` // 0 = derive from the clock
}

type ScoringConfig struct {
	Weights model.ScoringWeights `mapstructure:"weights" yaml:"weights"`
}

type InputConfig struct {
	Source string `mapstructure:"source" yaml:"source"`
	Path   string `mapstructure:"path" yaml:"path"` // file source only
}

type RandomConfig struct {
	VMs      int             `mapstructure:"vms" yaml:"vms"`
	PMs      int             `mapstructure:"pms" yaml:"pms"`
	VMCPU    inventory.Range `mapstructure:"vm_cpu" yaml:"vm_cpu"`
	PMCPU    inventory.Range `mapstructure:"pm_cpu" yaml:"pm_cpu"`
	VMMemory inventory.Range `mapstructure:"vm_memory" yaml:"vm_memory"`
	PMMemory inventory.Range `mapstructure:"pm_memory" yaml:"pm_memory"`
	Seed     uint64          `mapstructure:"seed" yaml:"seed"`
}

type KubernetesConfig struct {
	Kubeconfig           string        `mapstructure:"kubeconfig" yaml:"kubeconfig"`
	Context              string        `mapstructure:"context" yaml:"context"`
	Timeout              time.Duration `mapstructure:"timeout" yaml:"timeout"`
	QPS                  float32       `mapstructure:"qps" yaml:"qps"`
	Burst                int           `mapstructure:"burst" yaml:"burst"`
	Namespaces           []string      `mapstructure:"namespaces" yaml:"namespaces"` // empty = all namespaces
	ExcludeNamespaces    []string      `mapstructure:"exclude_namespaces" yaml:"exclude_namespaces"`
	NodeSelector         string        `mapstructure:"node_selector" yaml:"node_selector"`
	PodSelector          string        `mapstructure:"pod_selector" yaml:"pod_selector"`
	IncludeDaemonSets    bool          `mapstructure:"include_daemonsets" yaml:"include_daemonsets"`
	IncludeUnschedulable bool          `mapstructure:"include_unschedulable" yaml:"include_unschedulable"`
}

type VSphereConfig struct {
	Host       string `mapstructure:"host" yaml:"host"`
	Username   string `mapstructure:"username" yaml:"username"`
	Password   string `mapstructure:"password" yaml:"password"`
	Datacenter string `mapstructure:"datacenter" yaml:"datacenter"`
	Cluster    string `mapstructure:"cluster" yaml:"cluster"`
	Insecure   bool   `mapstructure:"insecure" yaml:"insecure"`
}

type EC2Config struct {
	Region           string                  `mapstructure:"region" yaml:"region"`
	CacheDir         string                  `mapstructure:"cache_dir" yaml:"cache_dir"`
	Hosts            []inventory.EC2HostSpec `mapstructure:"hosts" yaml:"hosts"`
	Workloads        string                  `mapstructure:"workloads" yaml:"workloads"`
	IdleWattsPerVCPU float64                 `mapstructure:"idle_watts_per_vcpu" yaml:"idle_watts_per_vcpu"`
	BusyWattsPerVCPU float64                 `mapstructure:"busy_watts_per_vcpu" yaml:"busy_watts_per_vcpu"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"` // empty = stdout
}

type MetricsConfig struct {
	File string `mapstructure:"file" yaml:"file"` // Prometheus text file, empty = disabled
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	params := placement.DefaultParams()
	random := inventory.DefaultRandomOptions()

	return Config{
		Power: PowerConfig{
			IdleWatts: model.DefaultIdleWatts,
			BusyWatts: model.DefaultBusyWatts,
		},
		Placement: PlacementConfig{
			Strategy: "first-fit",
		},
		Optimizer: OptimizerConfig{
			Alpha:           params.Alpha,
			Beta0:           params.Beta0,
			Gamma:           params.Gamma,
			Population:      params.PopulationSize,
			Generations:     params.Generations,
			Seeding:         params.Seeding,
			GreedySeed:      params.GreedySeed,
			MaxSeedAttempts: params.MaxSeedAttempts,
			MutationRate:    params.MutationRate,
			UpdateMode:      params.UpdateMode,
			Parallelism:     runtime.NumCPU(),
		},
		Scoring: ScoringConfig{
			Weights: model.DefaultScoringWeights(),
		},
		Input: InputConfig{
			Source: inventory.BackendFile,
		},
		Random: RandomConfig{
			VMs:   random.VMs,
			PMs:   random.PMs,
			VMCPU: random.VMCPU,
			PMCPU: random.PMCPU,
		},
		Kubernetes: KubernetesConfig{
			Timeout: 30 * time.Second,
			ExcludeNamespaces: []string{
				"kube-system",
				"kube-node-lease",
			},
		},
		EC2: EC2Config{
			Region: detectRegion(),
		},
		Output: OutputConfig{
			Format: report.FormatTable,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	if c.Power.IdleWatts < 0 || c.Power.BusyWatts < c.Power.IdleWatts {
		return fmt.Errorf("power must satisfy 0 <= idle_watts <= busy_watts, got %v and %v", c.Power.IdleWatts, c.Power.BusyWatts)
	}
	if c.Placement.Strategy != "first-fit" && c.Placement.Strategy != "best-fit-decreasing" {
		return fmt.Errorf("placement strategy must be first-fit or best-fit-decreasing, got %q", c.Placement.Strategy)
	}
	if err := c.Optimizer.Params().Validate(); err != nil {
		return err
	}
	w := c.Scoring.Weights
	if w.Power < 0 || w.Consolidation < 0 || w.Balance < 0 || w.Power+w.Consolidation+w.Balance == 0 {
		return fmt.Errorf("scoring weights must be non-negative and not all zero, got %+v", w)
	}

	validSources := []string{
		inventory.BackendFile, inventory.BackendRandom, inventory.BackendPrompt,
		inventory.BackendKube, inventory.BackendVSphere, inventory.BackendEC2,
	}
	if !slices.Contains(validSources, c.Input.Source) {
		return fmt.Errorf("%w: %q", inventory.ErrUnknownSource, c.Input.Source)
	}

	if !slices.Contains(report.Formats, c.Output.Format) {
		return fmt.Errorf("output format must be one of %v, got %q", report.Formats, c.Output.Format)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Params converts the optimizer section to search parameters.
func (c OptimizerConfig) Params() placement.Params {
	return placement.Params{
		Alpha:           c.Alpha,
		Beta0:           c.Beta0,
		Gamma:           c.Gamma,
		PopulationSize:  c.Population,
		Generations:     c.Generations,
		Seeding:         c.Seeding,
		GreedySeed:      c.GreedySeed,
		MaxSeedAttempts: c.MaxSeedAttempts,
		MutationRate:    c.MutationRate,
		UpdateMode:      c.UpdateMode,
		Parallelism:     c.workers(),
	}
}

// workers returns the snapshot-mode worker count; zero or less means one per CPU.
func (c OptimizerConfig) workers() int {
	if c.Parallelism <= 0 {
		return runtime.NumCPU()
	}
	return c.Parallelism
}

// ResolveSeed returns the configured seed, or one derived from the clock when unset.
func (c OptimizerConfig) ResolveSeed() uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return uint64(time.Now().UnixNano())
}

// Options converts the random section to generator options.
func (c RandomConfig) Options() inventory.RandomOptions {
	return inventory.RandomOptions{
		VMs:      c.VMs,
		PMs:      c.PMs,
		VMCPU:    c.VMCPU,
		PMCPU:    c.PMCPU,
		VMMemory: c.VMMemory,
		PMMemory: c.PMMemory,
		Seed:     c.Seed,
	}
}

// Options converts the kubernetes section to source options.
func (c KubernetesConfig) Options() inventory.KubeOptions {
	return inventory.KubeOptions{
		Namespaces:           c.Namespaces,
		ExcludeNamespaces:    c.ExcludeNamespaces,
		NodeSelector:         c.NodeSelector,
		PodSelector:          c.PodSelector,
		IncludeDaemonSets:    c.IncludeDaemonSets,
		IncludeUnschedulable: c.IncludeUnschedulable,
	}
}

// Options converts the vsphere section to source options.
func (c VSphereConfig) Options() inventory.VSphereOptions {
	return inventory.VSphereOptions{
		Host:       c.Host,
		Username:   c.Username,
		Password:   c.Password,
		Datacenter: c.Datacenter,
		Cluster:    c.Cluster,
		Insecure:   c.Insecure,
	}
}

// Options converts the ec2 section to source options.
func (c EC2Config) Options() inventory.EC2Options {
	return inventory.EC2Options{
		Hosts:            c.Hosts,
		WorkloadsFile:    c.Workloads,
		IdleWattsPerVCPU: c.IdleWattsPerVCPU,
		BusyWattsPerVCPU: c.BusyWattsPerVCPU,
	}
}

// detectRegion checks environment variables for the AWS region.
func detectRegion() string {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	if r := os.Getenv("AWS_DEFAULT_REGION"); r != "" {
		return r
	}
	return "us-east-1"
}
