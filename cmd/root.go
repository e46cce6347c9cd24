package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/guimove/powerfit/internal/config"
	"github.com/guimove/powerfit/internal/logger"
)

var (
	cfgFile string
	cfg     config.Config
	verbose bool
	log     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "powerfit",
	Short: "Power-aware placement of virtual machines onto physical hosts",
	Long: `PowerFit assigns workloads (VMs, pods) to hosts so that total power draw is
minimized without exceeding any host's capacity.

It ships greedy first-fit and best-fit-decreasing placers and a discrete
firefly optimizer, and reads its inventory from files, a random generator,
interactive prompts, Kubernetes, vSphere or EC2 instance types.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default: powerfit.yaml)")
	f.BoolVar(&verbose, "verbose", false, "enable debug logging")

	// Global flags that map to config
	f.String("source", "", "inventory source: file, random, prompt, kubernetes, vsphere, ec2")
	f.StringP("input", "i", "", "inventory file for the file source")
	f.StringP("output", "o", "", "output format: table, json, markdown, csv, chart")
	f.String("output-file", "", "write the report to a file instead of stdout")
	f.String("metrics-file", "", "write Prometheus metrics of the run to a file")
	f.Float64("idle-watts", 0, "idle power of hosts that declare none")
	f.Float64("busy-watts", 0, "full-load power of hosts that declare none")
	f.String("kubeconfig", "", "path to kubeconfig file")
	f.String("kube-context", "", "Kubernetes context name")
	f.String("region", "", "AWS region for the ec2 source")

	_ = viper.BindPFlag("input.source", f.Lookup("source"))
	_ = viper.BindPFlag("input.path", f.Lookup("input"))
	_ = viper.BindPFlag("output.format", f.Lookup("output"))
	_ = viper.BindPFlag("output.file", f.Lookup("output-file"))
	_ = viper.BindPFlag("metrics.file", f.Lookup("metrics-file"))
	_ = viper.BindPFlag("power.idle_watts", f.Lookup("idle-watts"))
	_ = viper.BindPFlag("power.busy_watts", f.Lookup("busy-watts"))
	_ = viper.BindPFlag("kubernetes.kubeconfig", f.Lookup("kubeconfig"))
	_ = viper.BindPFlag("kubernetes.context", f.Lookup("kube-context"))
	_ = viper.BindPFlag("ec2.region", f.Lookup("region"))
}

func loadConfig() error {
	// Start with defaults
	cfg = config.Default()

	// Unchanged flags fall back to these instead of their zero values
	viper.SetDefault("input.source", cfg.Input.Source)
	viper.SetDefault("output.format", cfg.Output.Format)
	viper.SetDefault("power.idle_watts", cfg.Power.IdleWatts)
	viper.SetDefault("power.busy_watts", cfg.Power.BusyWatts)
	viper.SetDefault("ec2.region", cfg.EC2.Region)

	// Optional .env next to the config, for vSphere and AWS credentials
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("powerfit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.powerfit")
	}

	// Environment variable overrides, e.g. POWERFIT_VSPHERE_PASSWORD
	viper.SetEnvPrefix("POWERFIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{"vsphere.host", "vsphere.username", "vsphere.password", "optimizer.seed"} {
		_ = viper.BindEnv(key)
	}

	// Read config file (not an error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	log = l
	return nil
}
