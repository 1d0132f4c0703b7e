package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tac-sim/default-broker/sim"
)

// buildScenario loads the scenario named by --config, or the built-in one,
// and applies CLI overrides. A flag overrides the file only when the user
// set it explicitly.
func buildScenario(cmd *cobra.Command) (*sim.Scenario, error) {
	s := sim.DefaultScenario()
	if configPath != "" {
		loaded, err := sim.LoadScenario(configPath)
		if err != nil {
			return nil, err
		}
		s = loaded
		logrus.Infof("loaded scenario %s", configPath)
	}
	applyOverrides(s, cmd.Flags().Changed)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return s, nil
}

// applyOverrides copies every flag for which changed reports true into s.
func applyOverrides(s *sim.Scenario, changed func(name string) bool) {
	if changed("seed") {
		s.Seed = seed
	}
	if changed("mode") {
		s.Mode = mode
	}
	if changed("timeslots") {
		s.Timeslots = timeslots
	}
	if changed("trace") {
		s.Broker.Trace = traceLevel
	}
}
