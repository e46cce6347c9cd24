package cmd

import (
	"github.com/spf13/cobra"

	"github.com/guimove/powerfit/internal/orchestrator"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Rank first-fit, best-fit-decreasing and the firefly optimizer",
	Long: `Runs every strategy on the same inventory and ranks the placements by
feasibility, then by a weighted score of power, consolidation and balance.
Power is also reported relative to the first-fit baseline.`,
	RunE: runCompare,
}

func init() {
	addOptimizerFlags(compareCmd.Flags())
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	applyOptimizerFlags(cmd.Flags())
	if err := cfg.Validate(); err != nil {
		return err
	}
	return runPipeline(cmd.Context(), (*orchestrator.Orchestrator).Compare)
}
