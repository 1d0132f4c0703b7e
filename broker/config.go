package broker

import "fmt"

// RoleName is the PluginConfig role under which broker options travel.
const RoleName = "DefaultBroker"

// UsageRecordLength is the length of the usage ring: one week of hours.
const UsageRecordLength = 7 * 24

// SmoothingAlpha is the weight of a new observation in the usage ring.
const SmoothingAlpha = 0.3

// Config holds the broker's tunable parameters.
//
// Tariff rates take the customer viewpoint; limit prices take the broker's.
// For each side, Max is the price "sure to trade" and Min the least
// favorable to the counterparty.
type Config struct {
	ConsumptionRate float64
	ProductionRate  float64
	// InitialBidKWh is accepted for configuration compatibility but nothing
	// reads it after Init.
	InitialBidKWh     float64
	BuyLimitPriceMin  float64
	BuyLimitPriceMax  float64
	SellLimitPriceMin float64
	SellLimitPriceMax float64
}

// DefaultConfig returns the standard broker parameters.
func DefaultConfig() Config {
	return Config{
		ConsumptionRate:   -1.0,
		ProductionRate:    0.01,
		InitialBidKWh:     500.0,
		BuyLimitPriceMin:  -100.0,
		BuyLimitPriceMax:  -1.0,
		SellLimitPriceMin: 0.2,
		SellLimitPriceMax: 100.0,
	}
}

// ConfigFromPlugin overlays the attributes of pc onto the defaults.
// Attribute names match the option names of the plugin configuration.
func ConfigFromPlugin(pc PluginConfig) (Config, error) {
	c := DefaultConfig()
	fields := []struct {
		name string
		dst  *float64
	}{
		{"consumptionRate", &c.ConsumptionRate},
		{"productionRate", &c.ProductionRate},
		{"initialBidKWh", &c.InitialBidKWh},
		{"buyLimitPriceMin", &c.BuyLimitPriceMin},
		{"buyLimitPriceMax", &c.BuyLimitPriceMax},
		{"sellLimitPriceMin", &c.SellLimitPriceMin},
		{"sellLimitPriceMax", &c.SellLimitPriceMax},
	}
	for _, f := range fields {
		v, err := pc.DoubleValue(f.name, *f.dst)
		if err != nil {
			return c, err
		}
		*f.dst = v
	}
	return c, nil
}

// PluginConfig renders the config back into plugin attributes, for the
// bootstrap dataset.
func (c Config) PluginConfig() PluginConfig {
	return NewPluginConfig(RoleName, "").
		WithDouble("consumptionRate", c.ConsumptionRate).
		WithDouble("productionRate", c.ProductionRate).
		WithDouble("initialBidKWh", c.InitialBidKWh).
		WithDouble("buyLimitPriceMin", c.BuyLimitPriceMin).
		WithDouble("buyLimitPriceMax", c.BuyLimitPriceMax).
		WithDouble("sellLimitPriceMin", c.SellLimitPriceMin).
		WithDouble("sellLimitPriceMax", c.SellLimitPriceMax)
}

// Warnings describes inverted price bounds. Any value is accepted; an
// inverted pair only makes the escalation walk away from the floor.
func (c Config) Warnings() []string {
	var out []string
	if c.BuyLimitPriceMin > c.BuyLimitPriceMax {
		out = append(out, fmt.Sprintf("buyLimitPriceMin %g exceeds buyLimitPriceMax %g", c.BuyLimitPriceMin, c.BuyLimitPriceMax))
	}
	if c.SellLimitPriceMin > c.SellLimitPriceMax {
		out = append(out, fmt.Sprintf("sellLimitPriceMin %g exceeds sellLimitPriceMax %g", c.SellLimitPriceMin, c.SellLimitPriceMax))
	}
	return out
}
