package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guimove/powerfit/internal/model"
	"github.com/guimove/powerfit/internal/orchestrator"
)

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Place workloads with a greedy strategy",
	Long: `Places every workload on the first host (in host order) with enough room,
or with best-fit-decreasing on the host it fills most tightly. Workloads that
fit nowhere are reported as unplaced.`,
	RunE: runPlace,
}

func init() {
	f := placeCmd.Flags()
	f.String("strategy", "first-fit", "greedy strategy: first-fit or best-fit-decreasing")

	rootCmd.AddCommand(placeCmd)
}

func runPlace(cmd *cobra.Command, args []string) error {
	if s, _ := cmd.Flags().GetString("strategy"); cmd.Flags().Changed("strategy") {
		cfg.Placement.Strategy = s
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return runPipeline(cmd.Context(), (*orchestrator.Orchestrator).Place)
}

// runPipeline wires source, output and logger into an orchestrator and runs step.
func runPipeline(ctx context.Context, step func(*orchestrator.Orchestrator, context.Context) ([]model.Recommendation, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}

	source, err := resolveSource(ctx)
	if err != nil {
		return err
	}

	w, closeOutput, err := openOutput()
	if err != nil {
		return err
	}

	orch := orchestrator.New(source, cfg, log)
	orch.Writer = w

	_, err = step(orch, ctx)
	if cerr := closeOutput(); err == nil && cerr != nil {
		err = fmt.Errorf("closing output file: %w", cerr)
	}
	return err
}
