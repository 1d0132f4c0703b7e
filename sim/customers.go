package sim

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/tac-sim/default-broker/broker"
)

// customerClass is one synthetic population and its subscription state.
type customerClass struct {
	info       *broker.CustomerInfo
	spec       CustomerSpec
	tariff     *broker.TariffSpecification
	subscribed int
}

// Customers is the host's customer model. It doubles as the tariff market:
// every class subscribes in full to the default tariff of its power type.
type Customers struct {
	classes  []*customerClass
	byName   map[string]*customerClass
	defaults map[broker.PowerType]*broker.TariffSpecification
	rng      *rand.Rand
}

// NewCustomers builds the customer classes in declaration order.
func NewCustomers(specs []CustomerSpec, rng *rand.Rand) *Customers {
	c := &Customers{
		byName:   make(map[string]*customerClass, len(specs)),
		defaults: make(map[broker.PowerType]*broker.TariffSpecification),
		rng:      rng,
	}
	for _, s := range specs {
		cc := &customerClass{
			info: &broker.CustomerInfo{Name: s.Name, Population: s.Population, PowerType: broker.PowerType(s.PowerType)},
			spec: s,
		}
		c.classes = append(c.classes, cc)
		c.byName[s.Name] = cc
	}
	return c
}

// FindByName implements broker.CustomerRepo.
func (c *Customers) FindByName(name string) (*broker.CustomerInfo, bool) {
	cc, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return cc.info, true
}

// SetDefaultTariff implements broker.TariffMarket. Replacing the default
// tariff of a power type moves nobody; existing subscribers stay where they are.
func (c *Customers) SetDefaultTariff(spec *broker.TariffSpecification) {
	logrus.Debugf("default %s tariff %s from %s", spec.PowerType, spec.ID, spec.Broker)
	c.defaults[spec.PowerType] = spec
}

// Subscribed returns the subscribed population of a class.
func (c *Customers) Subscribed(name string) int {
	if cc, ok := c.byName[name]; ok {
		return cc.subscribed
	}
	return 0
}

// Step produces the tariff transactions for one timeslot: a SIGNUP for
// every class not yet subscribed, then one usage report per class.
func (c *Customers) Step(clock *Clock) []broker.Message {
	now := clock.Now()
	var out []broker.Message
	for _, cc := range c.classes {
		if cc.tariff == nil {
			tariff, ok := c.defaults[cc.info.PowerType]
			if !ok {
				logrus.Warnf("no default %s tariff; customer %s idle", cc.info.PowerType, cc.info.Name)
				continue
			}
			cc.tariff = tariff
			cc.subscribed = cc.info.Population
			out = append(out, &broker.TariffTransaction{
				TxType:        broker.TxSignup,
				Tariff:        tariff,
				Customer:      cc.info,
				CustomerCount: cc.subscribed,
				PostedTime:    now,
			})
		}
		kwh := c.usage(cc, now.Hour()) * float64(cc.subscribed)
		txType := broker.TxProduce
		if cc.info.PowerType == broker.Consumption {
			kwh = -kwh
			txType = broker.TxConsume
		}
		out = append(out, &broker.TariffTransaction{
			TxType:        txType,
			Tariff:        cc.tariff,
			Customer:      cc.info,
			CustomerCount: cc.subscribed,
			KWh:           kwh,
			Charge:        -kwh * cc.tariff.Rate,
			PostedTime:    now,
		})
	}
	return out
}

// usage returns per-capita kWh magnitude for the given hour of day.
func (c *Customers) usage(cc *customerClass, hour int) float64 {
	s := cc.spec
	phase := 2 * math.Pi * float64(hour-s.PeakHour) / 24
	v := s.MeanKWh * (1 + s.Amplitude*math.Cos(phase))
	if s.Noise > 0 {
		v *= 1 + s.Noise*c.rng.NormFloat64()
	}
	return math.Max(0, v)
}
