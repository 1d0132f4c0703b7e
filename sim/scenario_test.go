package sim

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tac-sim/default-broker/broker"
)

func TestDefaultScenario_IsValid(t *testing.T) {
	s := DefaultScenario()
	require.NoError(t, s.Validate())
	assert.Equal(t, 168, s.RunLength())
	assert.False(t, s.IsBootstrap())
}

func TestParseScenario_RejectsUnknownKeys(t *testing.T) {
	// GIVEN YAML with a typo in a customer field
	data := []byte(`
seed: 7
customers:
  - name: village
    population: 100
    power_type: CONSUMPTION
    mean_kwhh: 1.0
`)
	// WHEN parsed
	_, err := ParseScenario(data)

	// THEN strict parsing rejects it
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mean_kwhh")
}

func TestParseScenario_OmittedFieldsKeepDefaults(t *testing.T) {
	// GIVEN YAML that only sets the seed and the customers
	data := []byte(`
seed: 7
mode: bootstrap
customers:
  - name: town
    population: 50
    power_type: CONSUMPTION
    mean_kwh: 2
    peak_hour: 18
`)
	s, err := ParseScenario(data)
	require.NoError(t, err)

	// THEN the listed values win and everything else is the default
	assert.Equal(t, int64(7), s.Seed)
	require.Len(t, s.Customers, 1)
	assert.Equal(t, "town", s.Customers[0].Name)
	assert.Equal(t, DefaultScenario().Market, s.Market)
	assert.Equal(t, 24, s.Competition.TimeslotsOpen)
	require.NoError(t, s.Validate())
	assert.Equal(t, 24+336, s.RunLength())
}

func TestParseScenario_EmptyDocumentIsDefault(t *testing.T) {
	s, err := ParseScenario([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultScenario(), s)
}

func TestLoadScenario_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 99\ntimeslots: 10\n"), 0o644))

	s, err := LoadScenario(path)

	require.NoError(t, err)
	assert.Equal(t, int64(99), s.Seed)
	assert.Equal(t, 10, s.RunLength())

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScenario_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr string
	}{
		{"bad mode", func(s *Scenario) { s.Mode = "live" }, "unknown mode"},
		{"negative timeslots", func(s *Scenario) { s.Timeslots = -1 }, "timeslots"},
		{"no open timeslots", func(s *Scenario) { s.Competition.TimeslotsOpen = 0 }, "timeslots_open"},
		{"deactivate too far", func(s *Scenario) { s.Competition.DeactivateTimeslotsAhead = 24 }, "deactivate_timeslots_ahead"},
		{"bad base time", func(s *Scenario) { s.Competition.BaseTime = "June" }, "base_time"},
		{"no broker name", func(s *Scenario) { s.Broker.Name = "" }, "broker.name"},
		{"bad trace", func(s *Scenario) { s.Broker.Trace = "all" }, "broker.trace"},
		{"no customers", func(s *Scenario) { s.Customers = nil }, "at least one customer"},
		{"duplicate customer", func(s *Scenario) { s.Customers[1].Name = s.Customers[0].Name }, "duplicate name"},
		{"bad power type", func(s *Scenario) { s.Customers[0].PowerType = "STORAGE" }, "power_type"},
		{"zero population", func(s *Scenario) { s.Customers[0].Population = 0 }, "population"},
		{"amplitude above one", func(s *Scenario) { s.Customers[0].Amplitude = 1.5 }, "amplitude"},
		{"peak hour", func(s *Scenario) { s.Customers[0].PeakHour = 24 }, "peak_hour"},
		{"zero price", func(s *Scenario) { s.Market.MeanPrice = 0 }, "market.mean_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScenario()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScenario_CompetitionParams_ParsesDates(t *testing.T) {
	s := DefaultScenario()
	s.Competition.BaseTime = "2012-03-04"
	c := s.CompetitionParams()
	assert.Equal(t, time.Date(2012, 3, 4, 0, 0, 0, 0, time.UTC), c.BaseTime)
	assert.Equal(t, time.Hour, c.TimeslotDuration())
}

func TestScenario_PluginConfig_CarriesOptions(t *testing.T) {
	s := DefaultScenario()
	s.Broker.Options = map[string]float64{"buyLimitPriceMin": -60}

	cfg, err := broker.ConfigFromPlugin(s.PluginConfig())

	require.NoError(t, err)
	assert.Equal(t, -60.0, cfg.BuyLimitPriceMin)
}
