package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tac-sim/default-broker/broker/trace"
)

var testBase = time.Date(2010, 6, 21, 0, 0, 0, 0, time.UTC)

// fakeClock exposes a settable current timeslot with an open window of
// `open` timeslots after it.
type fakeClock struct {
	current int
	open    int
}

func (c *fakeClock) CurrentTimeslot() int { return c.current }

func (c *fakeClock) EnabledTimeslots() []int {
	out := make([]int, c.open)
	for i := range out {
		out[i] = c.current + 1 + i
	}
	return out
}

func (c *fakeClock) TimeslotStart(serial int) time.Time {
	return testBase.Add(time.Duration(serial) * time.Hour)
}

type recordingRouter struct {
	orders []*Order
}

func (r *recordingRouter) RouteOrder(o *Order) { r.orders = append(r.orders, o) }

func (r *recordingRouter) forTimeslot(ts int) []*Order {
	var out []*Order
	for _, o := range r.orders {
		if o.Timeslot == ts {
			out = append(out, o)
		}
	}
	return out
}

type fakePositions map[int]*MarketPosition

func (p fakePositions) FindMarketPosition(ts int) (*MarketPosition, bool) {
	posn, ok := p[ts]
	return posn, ok
}

type fakeTariffMarket struct {
	published []*TariffSpecification
}

func (m *fakeTariffMarket) SetDefaultTariff(spec *TariffSpecification) {
	m.published = append(m.published, spec)
}

type fakeCustomers map[string]*CustomerInfo

func (c fakeCustomers) FindByName(name string) (*CustomerInfo, bool) {
	ci, ok := c[name]
	return ci, ok
}

// testHost bundles a broker with its fake collaborators.
type testHost struct {
	broker    *Broker
	clock     *fakeClock
	router    *recordingRouter
	positions fakePositions
	market    *fakeTariffMarket
	customers fakeCustomers
}

func newTestHost(t *testing.T, bootstrapMode bool) *testHost {
	t.Helper()
	h := &testHost{
		clock:     &fakeClock{open: 24},
		router:    &recordingRouter{},
		positions: fakePositions{},
		market:    &fakeTariffMarket{},
		customers: fakeCustomers{
			"village":    {Name: "village", Population: 1000, PowerType: Consumption},
			"solar farm": {Name: "solar farm", Population: 10, PowerType: Production},
		},
	}
	collab := Collaborators{
		Clock:        h.clock,
		Competition:  DefaultCompetition(),
		TariffMarket: h.market,
		Router:       h.router,
		Positions:    h.positions,
		Customers:    h.customers,
		RNG:          NewPartitionedRNG(NewSimulationKey(42)),
	}
	h.broker = NewBroker("default broker", collab, trace.TraceConfig{Level: trace.TraceLevelDecisions})
	require.NoError(t, h.broker.Init(NewPluginConfig(RoleName, "default broker"), bootstrapMode))
	return h
}

func (h *testHost) tariff(pt PowerType) *TariffSpecification {
	spec, ok := h.broker.book.TariffFor(pt)
	if !ok {
		panic("no tariff for " + string(pt))
	}
	return spec
}

func (h *testHost) signup(name string, count int) {
	c := h.customers[name]
	h.broker.Receive(&TariffTransaction{
		TxType:        TxSignup,
		Tariff:        h.tariff(c.PowerType),
		Customer:      c,
		CustomerCount: count,
		PostedTime:    h.clock.TimeslotStart(h.clock.current),
	})
}

func (h *testHost) usage(name string, kwh float64, timeslot int) {
	c := h.customers[name]
	txType := TxConsume
	if c.PowerType == Production {
		txType = TxProduce
	}
	h.broker.Receive(&TariffTransaction{
		TxType:        txType,
		Tariff:        h.tariff(c.PowerType),
		Customer:      c,
		CustomerCount: c.Population,
		KWh:           kwh,
		PostedTime:    h.clock.TimeslotStart(timeslot),
	})
}

func (h *testHost) endTimeslot() {
	h.broker.Receive(&CashPosition{})
}
