package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guimove/powerfit/internal/inventory"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random inventory",
	Long: `Draws a synthetic inventory: VM CPU demand uniform in [5,20] and PM CPU
capacity uniform in [30,60] by default, optionally with memory. The output
can be fed back with --source file --input <file>.`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.Int("vms", 10, "number of VMs")
	f.Int("pms", 5, "number of PMs")
	f.Float64Slice("vm-cpu", []float64{5, 20}, "VM CPU demand range min,max")
	f.Float64Slice("pm-cpu", []float64{30, 60}, "PM CPU capacity range min,max")
	f.Float64Slice("vm-memory", nil, "VM memory demand range min,max (enables 2-D)")
	f.Float64Slice("pm-memory", nil, "PM memory capacity range min,max (enables 2-D)")
	f.Uint64("seed", 0, "random seed")
	f.String("format", "yaml", "stdout format when --output-file is not set: yaml or json")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	opts := cfg.Random.Options()

	if v, _ := f.GetInt("vms"); f.Changed("vms") {
		opts.VMs = v
	}
	if v, _ := f.GetInt("pms"); f.Changed("pms") {
		opts.PMs = v
	}
	if v, _ := f.GetUint64("seed"); f.Changed("seed") {
		opts.Seed = v
	}
	for flag, dst := range map[string]*inventory.Range{
		"vm-cpu": &opts.VMCPU, "pm-cpu": &opts.PMCPU,
		"vm-memory": &opts.VMMemory, "pm-memory": &opts.PMMemory,
	} {
		if !f.Changed(flag) {
			continue
		}
		v, _ := f.GetFloat64Slice(flag)
		if len(v) != 2 {
			return fmt.Errorf("--%s takes min,max, got %v", flag, v)
		}
		*dst = inventory.Range{Min: v[0], Max: v[1]}
	}

	inv, err := inventory.NewRandomSource(opts).Load(cmd.Context())
	if err != nil {
		return err
	}
	log.WithField("seed", opts.Seed).Debugf("generated %d VMs and %d PMs", len(inv.Workloads), len(inv.Hosts))

	if cfg.Output.File != "" {
		if err := inventory.WriteFile(cfg.Output.File, inv); err != nil {
			return err
		}
		log.WithField("file", cfg.Output.File).Info("inventory written")
		return nil
	}

	format, _ := f.GetString("format")
	data, err := inventory.Marshal(inv, format)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
