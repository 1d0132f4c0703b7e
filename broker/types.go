package broker

import (
	"fmt"
	"strconv"
	"time"
)

// PowerType distinguishes the two sides of the retail market.
type PowerType string

const (
	Consumption PowerType = "CONSUMPTION"
	Production  PowerType = "PRODUCTION"
)

// validPowerTypes maps accepted power type strings.
var validPowerTypes = map[PowerType]bool{
	Consumption: true,
	Production:  true,
}

// IsValidPowerType returns true if the given string names a known power type.
func IsValidPowerType(s string) bool {
	return validPowerTypes[PowerType(s)]
}

// TariffSpecification is a standing retail offer. Tariffs are compared by ID;
// the broker never looks inside a tariff it did not create.
type TariffSpecification struct {
	ID        string
	Broker    string
	PowerType PowerType
	Rate      float64 // per-kWh; negative means the customer pays
}

// CustomerInfo identifies a customer class. Immutable after creation.
type CustomerInfo struct {
	Name       string
	Population int
	PowerType  PowerType
}

// Competition carries the game-wide parameters the broker and its host share.
type Competition struct {
	Name                        string
	TimeslotsOpen               int
	DeactivateTimeslotsAhead    int
	TimeslotLengthMinutes       int
	BootstrapTimeslotCount      int
	BootstrapDiscardedTimeslots int
	BaseTime                    time.Time
}

// DefaultCompetition returns the parameters of a standard one-hour-timeslot game.
func DefaultCompetition() Competition {
	return Competition{
		Name:                        "defaultCompetition",
		TimeslotsOpen:               24,
		DeactivateTimeslotsAhead:    1,
		TimeslotLengthMinutes:       60,
		BootstrapTimeslotCount:      336,
		BootstrapDiscardedTimeslots: 24,
		BaseTime:                    time.Date(2010, 6, 21, 0, 0, 0, 0, time.UTC),
	}
}

// TimeslotDuration returns the wall-clock length of one timeslot.
func (c Competition) TimeslotDuration() time.Duration {
	return time.Duration(c.TimeslotLengthMinutes) * time.Minute
}

// PluginConfig is a named bag of string attributes handed to a component at
// game start. Values are parsed on read so a config can round-trip through
// the bootstrap dataset unchanged.
type PluginConfig struct {
	RoleName   string
	Name       string
	Attributes map[string]string
}

// NewPluginConfig creates an empty PluginConfig for the given role.
func NewPluginConfig(roleName, name string) PluginConfig {
	return PluginConfig{RoleName: roleName, Name: name, Attributes: make(map[string]string)}
}

// WithDouble sets a float attribute and returns the config for chaining.
func (pc PluginConfig) WithDouble(name string, value float64) PluginConfig {
	if pc.Attributes == nil {
		pc.Attributes = make(map[string]string)
	}
	pc.Attributes[name] = strconv.FormatFloat(value, 'g', -1, 64)
	return pc
}

// DoubleValue returns the named attribute as a float64, or def when the
// attribute is missing. A malformed value is an error.
func (pc PluginConfig) DoubleValue(name string, def float64) (float64, error) {
	raw, ok := pc.Attributes[name]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def, fmt.Errorf("plugin config %s: attribute %s=%q is not a number: %w", pc.RoleName, name, raw, err)
	}
	return v, nil
}
