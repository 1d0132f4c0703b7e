package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tac-sim/default-broker/broker"
	"github.com/tac-sim/default-broker/broker/trace"
)

// Scenario is the top-level host configuration.
// Loaded from YAML via LoadScenario(path).
type Scenario struct {
	Version     string          `yaml:"version"`
	Seed        int64           `yaml:"seed"`
	Mode        string          `yaml:"mode"`      // "sim" (default) or "bootstrap"
	Timeslots   int             `yaml:"timeslots"` // 0 = bootstrap length in bootstrap mode
	Competition CompetitionSpec `yaml:"competition"`
	Broker      BrokerSpec      `yaml:"broker"`
	Customers   []CustomerSpec  `yaml:"customers"`
	Market      MarketSpec      `yaml:"market"`
	Weather     WeatherSpec     `yaml:"weather"`
}

// CompetitionSpec mirrors broker.Competition.
type CompetitionSpec struct {
	Name                        string `yaml:"name"`
	TimeslotsOpen               int    `yaml:"timeslots_open"`
	DeactivateTimeslotsAhead    int    `yaml:"deactivate_timeslots_ahead"`
	TimeslotLengthMinutes       int    `yaml:"timeslot_length_minutes"`
	BootstrapTimeslotCount      int    `yaml:"bootstrap_timeslot_count"`
	BootstrapDiscardedTimeslots int    `yaml:"bootstrap_discarded_timeslots"`
	BaseTime                    string `yaml:"base_time,omitempty"` // yyyy-mm-dd or RFC3339
}

// BrokerSpec names the default broker and carries its plugin options.
type BrokerSpec struct {
	Name    string             `yaml:"name"`
	Trace   string             `yaml:"trace,omitempty"`
	Options map[string]float64 `yaml:"options,omitempty"`
}

// CustomerSpec describes one synthetic customer class. Usage per capita
// per timeslot follows a daily cosine peaking at PeakHour, with
// multiplicative gaussian noise.
type CustomerSpec struct {
	Name       string  `yaml:"name"`
	Population int     `yaml:"population"`
	PowerType  string  `yaml:"power_type"`
	MeanKWh    float64 `yaml:"mean_kwh"`
	Amplitude  float64 `yaml:"amplitude"`
	PeakHour   int     `yaml:"peak_hour"`
	Noise      float64 `yaml:"noise"`
}

// MarketSpec configures the wholesale clearing price (per MWh, magnitude).
type MarketSpec struct {
	MeanPrice  float64 `yaml:"mean_price"`
	PriceNoise float64 `yaml:"price_noise"`
}

// WeatherSpec configures the synthetic weather.
type WeatherSpec struct {
	MeanTemperature  float64 `yaml:"mean_temperature"`
	TemperatureSwing float64 `yaml:"temperature_swing"`
	MeanWindSpeed    float64 `yaml:"mean_wind_speed"`
}

// Valid value registries.
var validModes = map[string]bool{
	"": true, "sim": true, "bootstrap": true,
}

// DefaultScenario returns a small two-class scenario on the standard
// competition parameters.
func DefaultScenario() *Scenario {
	c := broker.DefaultCompetition()
	return &Scenario{
		Version:   "1",
		Seed:      42,
		Mode:      "sim",
		Timeslots: 0,
		Competition: CompetitionSpec{
			Name:                        c.Name,
			TimeslotsOpen:               c.TimeslotsOpen,
			DeactivateTimeslotsAhead:    c.DeactivateTimeslotsAhead,
			TimeslotLengthMinutes:       c.TimeslotLengthMinutes,
			BootstrapTimeslotCount:      c.BootstrapTimeslotCount,
			BootstrapDiscardedTimeslots: c.BootstrapDiscardedTimeslots,
			BaseTime:                    c.BaseTime.Format(time.RFC3339),
		},
		Broker: BrokerSpec{Name: "default broker", Trace: string(trace.TraceLevelNone)},
		Customers: []CustomerSpec{
			{Name: "village", Population: 1000, PowerType: string(broker.Consumption), MeanKWh: 1.2, Amplitude: 0.4, PeakHour: 19, Noise: 0.05},
			{Name: "solar farm", Population: 10, PowerType: string(broker.Production), MeanKWh: 20, Amplitude: 1.0, PeakHour: 13, Noise: 0.1},
		},
		Market:  MarketSpec{MeanPrice: 40, PriceNoise: 10},
		Weather: WeatherSpec{MeanTemperature: 15, TemperatureSwing: 6, MeanWindSpeed: 4},
	}
}

// LoadScenario reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses YAML scenario content with strict field checking.
// Omitted fields keep their DefaultScenario values; a list given in the
// YAML replaces the default list entirely.
func ParseScenario(data []byte) (*Scenario, error) {
	s := DefaultScenario()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return s, nil
}

// Validate checks that all fields in the scenario are valid.
func (s *Scenario) Validate() error {
	if !validModes[s.Mode] {
		return fmt.Errorf("unknown mode %q; valid: sim, bootstrap", s.Mode)
	}
	if s.Timeslots < 0 {
		return fmt.Errorf("timeslots must be non-negative, got %d", s.Timeslots)
	}
	if err := s.Competition.validate(); err != nil {
		return err
	}
	if s.Broker.Name == "" {
		return fmt.Errorf("broker.name is required")
	}
	if !trace.IsValidTraceLevel(s.Broker.Trace) {
		return fmt.Errorf("unknown broker.trace %q; valid: none, decisions", s.Broker.Trace)
	}
	for name, v := range s.Broker.Options {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("broker.options.%s must be a finite number, got %f", name, v)
		}
	}
	if len(s.Customers) == 0 {
		return fmt.Errorf("at least one customer required")
	}
	seen := make(map[string]bool)
	for i, c := range s.Customers {
		if err := validateCustomer(&c, i); err != nil {
			return err
		}
		if seen[c.Name] {
			return fmt.Errorf("customer[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	if s.Market.MeanPrice <= 0 {
		return fmt.Errorf("market.mean_price must be positive, got %f", s.Market.MeanPrice)
	}
	if s.Market.PriceNoise < 0 {
		return fmt.Errorf("market.price_noise must be non-negative, got %f", s.Market.PriceNoise)
	}
	return nil
}

func (c *CompetitionSpec) validate() error {
	if c.TimeslotsOpen <= 0 {
		return fmt.Errorf("competition.timeslots_open must be positive, got %d", c.TimeslotsOpen)
	}
	if c.DeactivateTimeslotsAhead < 0 || c.DeactivateTimeslotsAhead >= c.TimeslotsOpen {
		return fmt.Errorf("competition.deactivate_timeslots_ahead must be in [0, %d), got %d",
			c.TimeslotsOpen, c.DeactivateTimeslotsAhead)
	}
	if c.TimeslotLengthMinutes <= 0 {
		return fmt.Errorf("competition.timeslot_length_minutes must be positive, got %d", c.TimeslotLengthMinutes)
	}
	if c.BootstrapTimeslotCount < 0 || c.BootstrapDiscardedTimeslots < 0 {
		return fmt.Errorf("competition bootstrap counts must be non-negative")
	}
	if _, err := parseBaseTime(c.BaseTime); err != nil {
		return err
	}
	return nil
}

func validateCustomer(c *CustomerSpec, idx int) error {
	prefix := fmt.Sprintf("customer[%d]", idx)
	if c.Name == "" {
		return fmt.Errorf("%s: name is required", prefix)
	}
	if c.Population <= 0 {
		return fmt.Errorf("%s: population must be positive, got %d", prefix, c.Population)
	}
	if !broker.IsValidPowerType(c.PowerType) {
		return fmt.Errorf("%s: unknown power_type %q; valid: CONSUMPTION, PRODUCTION", prefix, c.PowerType)
	}
	if c.MeanKWh < 0 {
		return fmt.Errorf("%s: mean_kwh must be non-negative, got %f", prefix, c.MeanKWh)
	}
	if c.Amplitude < 0 || c.Amplitude > 1 {
		return fmt.Errorf("%s: amplitude must be in [0, 1], got %f", prefix, c.Amplitude)
	}
	if c.PeakHour < 0 || c.PeakHour > 23 {
		return fmt.Errorf("%s: peak_hour must be in [0, 23], got %d", prefix, c.PeakHour)
	}
	if c.Noise < 0 {
		return fmt.Errorf("%s: noise must be non-negative, got %f", prefix, c.Noise)
	}
	return nil
}

// IsBootstrap reports whether the scenario records a bootstrap dataset.
func (s *Scenario) IsBootstrap() bool {
	return s.Mode == "bootstrap"
}

// CompetitionParams converts the competition section.
func (s *Scenario) CompetitionParams() broker.Competition {
	base, _ := parseBaseTime(s.Competition.BaseTime)
	return broker.Competition{
		Name:                        s.Competition.Name,
		TimeslotsOpen:               s.Competition.TimeslotsOpen,
		DeactivateTimeslotsAhead:    s.Competition.DeactivateTimeslotsAhead,
		TimeslotLengthMinutes:       s.Competition.TimeslotLengthMinutes,
		BootstrapTimeslotCount:      s.Competition.BootstrapTimeslotCount,
		BootstrapDiscardedTimeslots: s.Competition.BootstrapDiscardedTimeslots,
		BaseTime:                    base,
	}
}

// PluginConfig converts the broker options into a plugin config.
func (s *Scenario) PluginConfig() broker.PluginConfig {
	pc := broker.NewPluginConfig(broker.RoleName, s.Broker.Name)
	for name, v := range s.Broker.Options {
		pc = pc.WithDouble(name, v)
	}
	return pc
}

// RunLength returns the number of timeslots to simulate.
func (s *Scenario) RunLength() int {
	if s.Timeslots > 0 {
		return s.Timeslots
	}
	if s.IsBootstrap() {
		return s.Competition.BootstrapDiscardedTimeslots + s.Competition.BootstrapTimeslotCount
	}
	return 7 * 24
}

func parseBaseTime(s string) (time.Time, error) {
	if s == "" {
		return broker.DefaultCompetition().BaseTime, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("competition.base_time %q: expected yyyy-mm-dd or RFC3339", s)
	}
	return t, nil
}
