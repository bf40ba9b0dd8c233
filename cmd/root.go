package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/rtgs-sim/rtgs-sim/sim"
)

var (
	// CLI flags
	configPath string // Path to the YAML simulation configuration
	seed       int64  // Override for the config's rng_seed (-1 keeps the config value)
	logLevel   string // Log verbosity level
	eventsOut  string // Optional path to write the event log as JSON
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "rtgs-sim",
	Short: "Discrete-event simulator for RTGS payment networks",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the settlement simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if configPath == "" {
			logrus.Fatalf("Config path not provided. Exiting simulation.")
		}
		cfg, err := sim.LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("unable to read simulation config; %v", err)
		}
		if seed >= 0 {
			cfg.RNGSeed = seed
		}

		logrus.Infof("Starting simulation with %d agents, %d days x %d ticks, seed=%d",
			len(cfg.Agents), cfg.NumDays, cfg.TicksPerDay, cfg.RNGSeed)

		startTime := time.Now()

		orch, err := sim.New(cfg)
		if err != nil {
			logrus.Fatalf("unable to build simulation; %v", err)
		}
		orch.Run()
		orch.PrintMetrics()

		if eventsOut != "" {
			data, err := orch.EventsJSON()
			if err != nil {
				logrus.Fatalf("unable to serialize event log; %v", err)
			}
			if err := os.WriteFile(eventsOut, data, 0o644); err != nil {
				logrus.Fatalf("unable to write event log to %s; %v", eventsOut, err)
			}
			logrus.Infof("Event log written to %s (%d events)", eventsOut, len(orch.Events()))
		}

		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML simulation configuration")
	runCmd.Flags().Int64Var(&seed, "seed", -1, "Override rng_seed from the config (-1 keeps the config value)")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&eventsOut, "events-out", "", "Write the run's event log to this file as JSON")

	rootCmd.AddCommand(runCmd)
}
