package sim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tac-sim/default-broker/broker"
	"github.com/tac-sim/default-broker/broker/bootstrap"
	"github.com/tac-sim/default-broker/broker/trace"
)

// World runs one default broker against synthetic customers, a wholesale
// market and weather, all advancing on a shared timeslot clock.
// Messages reach the broker through the Bus in deterministic order.
type World struct {
	scenario    *Scenario
	competition broker.Competition
	rng         *broker.PartitionedRNG
	clock       *Clock
	bus         *Bus
	customers   *Customers
	market      *Market
	weather     *Weather
	broker      *broker.Broker
	guarded     *broker.Guarded
	steps       int
}

// Option customizes a World at construction.
type Option func(*worldOptions)

type worldOptions struct {
	wrapRouter func(broker.OrderRouter) broker.OrderRouter
}

// WithRouter wraps the market's order router, for example to mirror orders
// onto a message bus. The wrapper must forward every order to inner.
func WithRouter(wrap func(inner broker.OrderRouter) broker.OrderRouter) Option {
	return func(o *worldOptions) { o.wrapRouter = wrap }
}

// NewWorld validates the scenario, builds the host and initializes the broker.
func NewWorld(s *Scenario, opts ...Option) (*World, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	var o worldOptions
	for _, opt := range opts {
		opt(&o)
	}

	comp := s.CompetitionParams()
	rng := broker.NewPartitionedRNG(broker.NewSimulationKey(s.Seed))
	w := &World{
		scenario:    s,
		competition: comp,
		rng:         rng,
		clock:       NewClock(comp, 0),
		bus:         NewBus(),
		customers:   NewCustomers(s.Customers, rng.ForSubsystem(broker.SubsystemCustomers)),
		market:      NewMarket(s.Market, rng.ForSubsystem(broker.SubsystemMarket)),
		weather:     NewWeather(s.Weather, rng.ForSubsystem(broker.SubsystemWeather)),
	}
	var router broker.OrderRouter = w.market
	if o.wrapRouter != nil {
		router = o.wrapRouter(router)
	}
	collab := broker.Collaborators{
		Clock:        w.clock,
		Competition:  comp,
		TariffMarket: w.customers,
		Router:       router,
		Positions:    w.market,
		Customers:    w.customers,
		RNG:          rng,
	}
	w.broker = broker.NewBroker(s.Broker.Name, collab, trace.TraceConfig{Level: trace.TraceLevel(s.Broker.Trace)})
	if err := w.broker.Init(s.PluginConfig(), s.IsBootstrap()); err != nil {
		return nil, err
	}
	w.guarded = broker.NewGuarded(w.broker)
	return w, nil
}

// Broker returns the guarded broker, safe to read while the world runs.
func (w *World) Broker() *broker.Guarded { return w.guarded }

// Clock returns the world clock.
func (w *World) Clock() *Clock { return w.clock }

// Market returns the wholesale market.
func (w *World) Market() *Market { return w.market }

// Customers returns the customer model.
func (w *World) Customers() *Customers { return w.customers }

// Steps returns the number of timeslots simulated so far.
func (w *World) Steps() int { return w.steps }

// Step simulates the current timeslot and advances the clock. Within the
// timeslot the market clears first, then customers report, then weather,
// and accounting closes with the CashPosition that triggers trading.
func (w *World) Step() int {
	current := w.clock.CurrentTimeslot()
	for _, msg := range w.market.Clear(current) {
		w.bus.Post(current, msg)
	}
	for _, msg := range w.customers.Step(w.clock) {
		w.bus.Post(current, msg)
	}
	w.bus.Post(current, w.weather.Report(w.clock, current))
	w.bus.Post(current, &broker.TimeslotUpdate{
		FirstEnabled: current + 1,
		LastEnabled:  current + w.competition.TimeslotsOpen,
	})
	w.bus.Post(current, &broker.CashPosition{Balance: w.market.Cash()})

	delivered := w.bus.Deliver(current, w.guarded)
	logrus.Debugf("timeslot %d: delivered %d messages, %d orders pending", current, delivered, w.market.Pending())
	w.clock.Advance()
	w.steps++
	return delivered
}

// Run simulates n timeslots, stopping early if ctx is cancelled.
func (w *World) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.Step()
	}
	logrus.Infof("simulated %d timeslots, now at %d", n, w.clock.CurrentTimeslot())
	return nil
}

// BootstrapDataset snapshots the data a bootstrap run collected, limited to
// the competition's bootstrap timeslot count.
func (w *World) BootstrapDataset() (*bootstrap.Dataset, error) {
	if !w.scenario.IsBootstrap() {
		return nil, fmt.Errorf("bootstrap dataset requested from a %q world", w.scenario.Mode)
	}
	ds := &bootstrap.Dataset{
		BootstrapOffset: w.competition.BootstrapDiscardedTimeslots,
		Competition:     w.competition,
	}
	w.guarded.With(func(b *broker.Broker) {
		pc := b.Config().PluginConfig()
		pc.Name = b.Name()
		ds.PluginConfigs = []broker.PluginConfig{pc}
		ds.Items = b.CollectBootstrapData(w.competition.BootstrapTimeslotCount)
	})
	return ds, nil
}

// Replay primes a fresh world with a bootstrap dataset: the broker is
// re-initialized with the dataset's plugin config when one is present, the
// clock jumps to the end of the recorded series, and the customer series are
// delivered before the first simulated timeslot.
func (w *World) Replay(ds *bootstrap.Dataset) error {
	if w.steps > 0 {
		return fmt.Errorf("replay after %d simulated timeslots", w.steps)
	}
	if ds.Competition.TimeslotsOpen != 0 && ds.Competition.TimeslotsOpen != w.competition.TimeslotsOpen {
		logrus.Warnf("bootstrap data has %d open timeslots, scenario has %d",
			ds.Competition.TimeslotsOpen, w.competition.TimeslotsOpen)
	}
	if pc, ok := ds.PluginConfig(broker.RoleName); ok {
		var err error
		w.guarded.With(func(b *broker.Broker) {
			err = b.Init(pc, w.scenario.IsBootstrap())
		})
		if err != nil {
			return fmt.Errorf("replaying plugin config: %w", err)
		}
	}

	series := 0
	for _, cbd := range ds.CustomerData() {
		series = max(series, len(cbd.NetUsage))
	}
	w.clock.Set(ds.BootstrapOffset + series)
	for _, cbd := range ds.CustomerData() {
		w.bus.Post(w.clock.CurrentTimeslot(), cbd)
	}
	logrus.Infof("replaying %d customer series; starting at timeslot %d",
		len(ds.CustomerData()), w.clock.CurrentTimeslot())
	return nil
}
