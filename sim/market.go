package sim

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/tac-sim/default-broker/broker"
)

// minClearingPrice keeps the clearing price strictly positive.
const minClearingPrice = 0.01

// Market is a single-broker wholesale market. Orders queue until the next
// Clear, where each one is matched in full or not at all against one
// clearing price per target timeslot.
type Market struct {
	spec      MarketSpec
	rng       *rand.Rand
	pending   []*broker.Order
	positions map[int]*broker.MarketPosition
	prices    map[int]float64
	cash      float64
}

// NewMarket creates an empty market.
func NewMarket(spec MarketSpec, rng *rand.Rand) *Market {
	return &Market{
		spec:      spec,
		rng:       rng,
		positions: make(map[int]*broker.MarketPosition),
		prices:    make(map[int]float64),
	}
}

// RouteOrder implements broker.OrderRouter.
func (m *Market) RouteOrder(order *broker.Order) {
	m.pending = append(m.pending, order)
}

// FindMarketPosition implements broker.PositionLookup.
func (m *Market) FindMarketPosition(timeslot int) (*broker.MarketPosition, bool) {
	p, ok := m.positions[timeslot]
	return p, ok
}

// Pending returns the number of orders awaiting the next clearing.
func (m *Market) Pending() int {
	return len(m.pending)
}

// Cash returns the broker's running wholesale balance.
func (m *Market) Cash() float64 {
	return m.cash
}

// Clear matches every pending order targeting timeslot current or later and
// returns the resulting transactions followed by the updated positions.
// Orders for timeslots already past are discarded.
func (m *Market) Clear(current int) []broker.Message {
	orders := m.pending
	m.pending = nil

	var txs []broker.Message
	touched := make(map[int]bool)
	var slots []int
	for _, o := range orders {
		if o.Timeslot < current {
			logrus.Debugf("market: discarding stale %s", o)
			continue
		}
		p := m.clearingPrice(o.Timeslot)
		price := p
		if o.IsBuy() {
			price = -p
		}
		if o.LimitPrice > price {
			logrus.Debugf("market: %s not matched at %g", o, price)
			continue
		}
		txs = append(txs, &broker.MarketTransaction{Timeslot: o.Timeslot, MWh: o.MWh, Price: price})
		m.cash += o.MWh * price
		posn, ok := m.positions[o.Timeslot]
		if !ok {
			posn = &broker.MarketPosition{Timeslot: o.Timeslot}
			m.positions[o.Timeslot] = posn
		}
		posn.OverallBalance += o.MWh
		if !touched[o.Timeslot] {
			touched[o.Timeslot] = true
			slots = append(slots, o.Timeslot)
		}
	}
	for _, ts := range slots {
		p := *m.positions[ts]
		txs = append(txs, &p)
	}
	for ts := range m.prices {
		if ts < current {
			delete(m.prices, ts)
		}
	}
	return txs
}

// clearingPrice returns the magnitude of the price for a target timeslot,
// drawing it on first use.
func (m *Market) clearingPrice(timeslot int) float64 {
	if p, ok := m.prices[timeslot]; ok {
		return p
	}
	p := math.Max(minClearingPrice, m.spec.MeanPrice+m.spec.PriceNoise*m.rng.NormFloat64())
	m.prices[timeslot] = p
	return p
}
