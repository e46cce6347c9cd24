package cmd

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/guimove/powerfit/internal/inventory"
	"github.com/guimove/powerfit/internal/model"
	"github.com/guimove/powerfit/internal/orchestrator"
	"github.com/guimove/powerfit/internal/report"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load and display the inventory",
	Long: `Loads the inventory from the configured source, applies the default power
model and validates it. Useful for checking what a Kubernetes, vSphere or EC2
source sees. The json and yaml output can be fed back with --source file.`,
	RunE: runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.String("format", "table", "output format: table, json, yaml")
	f.String("sort-by", "", "sort workloads by: cpu, memory, id (default: source order)")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	source, err := resolveSource(ctx)
	if err != nil {
		return err
	}

	inv, err := orchestrator.New(source, cfg, log).Load(ctx)
	if err != nil {
		return err
	}

	sortBy, _ := cmd.Flags().GetString("sort-by")
	sortWorkloads(inv.Workloads, sortBy)

	w, closeOutput, err := openOutput()
	if err != nil {
		return err
	}
	defer func() { _ = closeOutput() }()

	format, _ := cmd.Flags().GetString("format")
	if format == "table" {
		report.WriteInventory(w, inv)
		return nil
	}

	data, err := inventory.Marshal(&inv, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func sortWorkloads(wl []model.Workload, by string) {
	switch by {
	case "cpu":
		sort.SliceStable(wl, func(i, j int) bool {
			return wl[i].Demand.CPU > wl[j].Demand.CPU
		})
	case "memory":
		sort.SliceStable(wl, func(i, j int) bool {
			return wl[i].Demand.Memory > wl[j].Demand.Memory
		})
	case "id":
		sort.SliceStable(wl, func(i, j int) bool {
			return wl[i].ID < wl[j].ID
		})
	}
}
