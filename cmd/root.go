package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// CLI flags shared by run and serve
	configPath   string // Scenario YAML path; empty means the built-in scenario
	seed         int64  // Seed for every random subsystem
	mode         string // "sim" or "bootstrap"
	timeslots    int    // Number of timeslots to simulate (0 = scenario default)
	bootstrapOut string // Where a bootstrap run writes its dataset
	bootFile     string // Bootstrap dataset to replay before a sim run
	traceLevel   string // Decision trace level
	natsURL      string // NATS server for the order mirror; empty disables it
	logLevel     string // Log verbosity level

	// CLI flags for serve
	addr string // Listen address of the inspection API
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "default-broker",
	Short: "Default broker for a retail electricity market simulation",
}

// runCmd simulates a scenario to completion and prints a summary
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the default broker against a simulated market",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		s, err := buildScenario(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		world, cleanup, err := buildWorld(s)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer cleanup()
		if err := runToCompletion(cmd.Context(), world, s, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// registerRunFlags attaches the scenario flags to cmd.
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "Scenario YAML file (defaults to the built-in scenario)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for random draws (overrides the scenario seed when set)")
	cmd.Flags().StringVar(&mode, "mode", "sim", "Run mode (sim, bootstrap)")
	cmd.Flags().IntVar(&timeslots, "timeslots", 0, "Timeslots to simulate (0 = scenario default)")
	cmd.Flags().StringVar(&bootstrapOut, "bootstrap-out", "", "Write the bootstrap dataset here at the end of a bootstrap run")
	cmd.Flags().StringVar(&bootFile, "boot-file", "", "Replay this bootstrap dataset before a sim run")
	cmd.Flags().StringVar(&traceLevel, "trace", "none", "Decision trace level (none, decisions)")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "Mirror orders to this NATS server")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)
	registerRunFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address of the inspection API")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
