package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/guimove/powerfit/internal/orchestrator"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search for a low-power placement with the firefly optimizer",
	Long: `Evolves a population of candidate placements for a fixed number of
generations. Every candidate is repaired to respect host capacity, and a
feasible placement always beats an infeasible one. A fixed --seed makes runs
reproducible in both update modes.`,
	RunE: runOptimize,
}

func init() {
	addOptimizerFlags(optimizeCmd.Flags())
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	applyOptimizerFlags(cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return err
	}
	return runPipeline(cmd.Context(), (*orchestrator.Orchestrator).Optimize)
}

func addOptimizerFlags(f *pflag.FlagSet) {
	f.Float64("alpha", 0.2, "probability of a random host per position")
	f.Float64("beta0", 1.0, "attractiveness at distance 0")
	f.Float64("gamma", 1.0, "light absorption coefficient")
	f.Int("population", 20, "number of fireflies")
	f.Int("generations", 50, "number of generations")
	f.String("seeding", "round-robin", "initial population: round-robin or random")
	f.Bool("greedy-seed", true, "seed one firefly with the first-fit placement")
	f.Float64("mutation-rate", 0, "probability of a feasibility-preserving mutation per move")
	f.String("update-mode", "sequential", "generation update: sequential or snapshot")
	f.Int("parallelism", 0, "snapshot-mode workers (default: number of CPUs)")
	f.Uint64("seed", 0, "random seed (default: derived from the clock)")
}

func applyOptimizerFlags(f *pflag.FlagSet) {
	o := &cfg.Optimizer
	if v, _ := f.GetFloat64("alpha"); f.Changed("alpha") {
		o.Alpha = v
	}
	if v, _ := f.GetFloat64("beta0"); f.Changed("beta0") {
		o.Beta0 = v
	}
	if v, _ := f.GetFloat64("gamma"); f.Changed("gamma") {
		o.Gamma = v
	}
	if v, _ := f.GetInt("population"); f.Changed("population") {
		o.Population = v
	}
	if v, _ := f.GetInt("generations"); f.Changed("generations") {
		o.Generations = v
	}
	if v, _ := f.GetString("seeding"); f.Changed("seeding") {
		o.Seeding = v
	}
	if v, _ := f.GetBool("greedy-seed"); f.Changed("greedy-seed") {
		o.GreedySeed = v
	}
	if v, _ := f.GetFloat64("mutation-rate"); f.Changed("mutation-rate") {
		o.MutationRate = v
	}
	if v, _ := f.GetString("update-mode"); f.Changed("update-mode") {
		o.UpdateMode = v
	}
	if v, _ := f.GetInt("parallelism"); f.Changed("parallelism") {
		o.Parallelism = v
	}
	if v, _ := f.GetUint64("seed"); f.Changed("seed") {
		o.Seed = v
	}
}
