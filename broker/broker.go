// broker/broker.go
package broker

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tac-sim/default-broker/broker/trace"
)

// Broker is the default broker: it keeps standing consumption and production
// tariffs open, forecasts the load of its subscribers, and trades in the
// wholesale market every timeslot to cover that load.
//
// Broker is not safe for concurrent use. All messages are expected on one
// goroutine, in bus order: within a timeslot every tariff and market
// transaction precedes the CashPosition that triggers trading. Wrap it in
// Guarded to share it with readers on other goroutines.
type Broker struct {
	name   string
	collab Collaborators
	cfg    Config

	bootstrapMode bool
	initialized   bool

	consumption *TariffSpecification
	production  *TariffSpecification

	book      *SubscriptionBook
	escalator *PriceEscalator
	planner   *OrderPlanner
	recorder  *BootstrapRecorder // nil outside bootstrap mode
	trace     *trace.BrokerTrace // nil when tracing is off
}

// NewBroker creates a broker bound to its host. Nothing is published until Init.
func NewBroker(name string, collab Collaborators, traceConfig trace.TraceConfig) *Broker {
	b := &Broker{
		name:   name,
		collab: collab,
		cfg:    DefaultConfig(),
	}
	if traceConfig.Enabled() {
		b.trace = trace.NewBrokerTrace(traceConfig)
	}
	return b
}

// Init sets up per-game state and publishes the standing tariffs. It is
// called once at the start of each game; calling it again starts a new game
// with an empty book, order table and decision trace.
func (b *Broker) Init(pc PluginConfig, bootstrapMode bool) error {
	cfg, err := ConfigFromPlugin(pc)
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		logrus.Warnf("broker %s: %s", b.name, w)
	}
	if b.collab.Clock == nil {
		return fmt.Errorf("broker %s: no clock", b.name)
	}
	b.cfg = cfg
	b.bootstrapMode = bootstrapMode
	logrus.Infof("init %s, bootstrapMode=%v", b.name, bootstrapMode)

	rng := b.collab.RNG
	if rng == nil {
		rng = NewPartitionedRNG(NewSimulationKey(0))
	}
	b.escalator = NewPriceEscalator(cfg, b.collab.Competition.DeactivateTimeslotsAhead,
		rng.ForSubsystem(SubsystemBroker(b.name)))

	if b.trace != nil {
		b.trace = trace.NewBrokerTrace(b.trace.Config)
	}

	b.recorder = nil
	if bootstrapMode {
		b.recorder = NewBootstrapRecorder()
	}

	b.consumption = b.newTariff(Consumption, cfg.ConsumptionRate)
	b.production = b.newTariff(Production, cfg.ProductionRate)
	b.book = NewSubscriptionBook([]*TariffSpecification{b.consumption, b.production},
		b.collab.Clock.TimeslotStart(0), b.collab.Competition.TimeslotDuration(), bootstrapMode)
	if b.collab.TariffMarket != nil {
		b.collab.TariffMarket.SetDefaultTariff(b.consumption)
		b.collab.TariffMarket.SetDefaultTariff(b.production)
	}

	b.planner = NewOrderPlanner(b.name, b.book, b.escalator, b.collab.Clock,
		b.collab.Positions, b.collab.Router, b.trace)
	b.initialized = true
	return nil
}

func (b *Broker) newTariff(pt PowerType, rate float64) *TariffSpecification {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.name+"/tariff/"+strings.ToLower(string(pt))))
	return &TariffSpecification{ID: id.String(), Broker: b.name, PowerType: pt, Rate: rate}
}

// Receive handles one message from the bus. Unrecognized messages are dropped.
func (b *Broker) Receive(msg Message) {
	if msg == nil {
		return
	}
	if !b.initialized {
		logrus.Warnf("broker %s not initialized; dropping %s", b.name, KindOf(msg))
		return
	}
	switch m := msg.(type) {
	case *TariffTransaction:
		b.book.Apply(m)
	case *MarketTransaction:
		b.handleMarketTransaction(m)
	case *WeatherReport:
		if b.bootstrapMode {
			b.recorder.AddWeatherReport(m)
		}
	case *CustomerBootstrapData:
		b.handleCustomerBootstrapData(m)
	case *CashPosition:
		if b.bootstrapMode {
			b.recorder.RecordDeliveredPrice(b.collab.Clock.CurrentTimeslot())
		}
		b.Activate()
	default:
		// MarketPosition is read lazily through PositionLookup.
	}
}

// handleMarketTransaction records the clearing in bootstrap mode and resets
// price escalation when the last order fully cleared.
func (b *Broker) handleMarketTransaction(tx *MarketTransaction) {
	if b.bootstrapMode {
		b.recorder.AddMarketTransaction(tx)
	}
	full := b.escalator.Observe(tx)
	if b.trace != nil {
		b.trace.RecordClearing(trace.ClearingRecord{
			Timeslot:     tx.Timeslot,
			MWh:          tx.MWh,
			Price:        tx.Price,
			FullyCleared: full,
		})
	}
}

// handleCustomerBootstrapData primes a customer record with history so the
// broker does not start from an empty profile. The series is aligned to end
// just before the current timeslot.
func (b *Broker) handleCustomerBootstrapData(cbd *CustomerBootstrapData) {
	if b.collab.Customers == nil {
		logrus.Warnf("no customer repo; bootstrap data for %s dropped", cbd.CustomerName)
		return
	}
	customer, ok := b.collab.Customers.FindByName(cbd.CustomerName)
	if !ok {
		logrus.Warnf("bootstrap data for unknown customer %s dropped", cbd.CustomerName)
		return
	}
	tariff, ok := b.book.TariffFor(cbd.PowerType)
	if !ok {
		logrus.Warnf("no standing tariff for power type %s; bootstrap data for %s dropped",
			cbd.PowerType, cbd.CustomerName)
		return
	}
	record, _ := b.book.Ensure(tariff, customer, customer.Population)
	offset := b.collab.Clock.CurrentTimeslot() - len(cbd.NetUsage)
	for i, kwh := range cbd.NetUsage {
		record.Record(kwh, i+offset)
	}
}

// Activate runs the per-timeslot trading step and returns the orders placed.
func (b *Broker) Activate() []*Order {
	if !b.initialized {
		return nil
	}
	return b.planner.Activate()
}

// CollectBootstrapData returns, in order: one CustomerBootstrapData per
// (tariff, customer) pair, one MarketBootstrapData, and the weather reports,
// each limited to the newest maxTimeslots entries. Only meaningful at the
// end of a bootstrap run.
func (b *Broker) CollectBootstrapData(maxTimeslots int) []Message {
	if !b.initialized || !b.bootstrapMode {
		logrus.Warnf("broker %s: bootstrap data requested outside bootstrap mode", b.name)
		return nil
	}
	var result []Message
	for _, cbd := range b.CustomerBootstrapData(maxTimeslots) {
		result = append(result, cbd)
	}
	result = append(result, b.recorder.MarketBootstrapData(maxTimeslots))
	for _, report := range b.recorder.WeatherReports(maxTimeslots) {
		result = append(result, &report)
	}
	return result
}

// CustomerBootstrapData returns one usage series per (tariff, customer)
// pair, tagged with the tariff's power type.
func (b *Broker) CustomerBootstrapData(maxTimeslots int) []*CustomerBootstrapData {
	var result []*CustomerBootstrapData
	if b.book == nil {
		return result
	}
	b.book.Each(func(spec *TariffSpecification, r *CustomerRecord) {
		result = append(result, &CustomerBootstrapData{
			CustomerName: r.Customer.Name,
			PowerType:    spec.PowerType,
			NetUsage:     r.BootstrapUsage(maxTimeslots),
		})
	})
	return result
}

// --- inspection ---

// Name returns the broker's username.
func (b *Broker) Name() string { return b.name }

// Config returns the parameters in force.
func (b *Broker) Config() Config { return b.cfg }

// IsBootstrapMode reports whether the broker is recording a bootstrap dataset.
func (b *Broker) IsBootstrapMode() bool { return b.bootstrapMode }

// Tariffs returns the standing tariffs, consumption first.
func (b *Broker) Tariffs() []*TariffSpecification {
	if b.book == nil {
		return nil
	}
	return b.book.Tariffs()
}

// CustomerCounts returns subscribed populations keyed by customer name
// followed by power type.
func (b *Broker) CustomerCounts() map[string]int {
	if b.book == nil {
		return map[string]int{}
	}
	return b.book.CustomerCounts()
}

// UsageForCustomer returns the predicted kWh of a customer under a tariff at
// index, or 0 if there is no such subscription.
func (b *Broker) UsageForCustomer(customer *CustomerInfo, tariff *TariffSpecification, index int) float64 {
	if b.book == nil {
		return 0
	}
	r, ok := b.book.Find(tariff, customer)
	if !ok {
		return 0
	}
	return r.Predict(index)
}

// CollectUsage returns the broker-side energy need at index, in kWh.
func (b *Broker) CollectUsage(index int) float64 {
	if b.book == nil {
		return 0
	}
	return b.book.CollectUsage(index)
}

// LastOrders returns the live last-order table sorted by timeslot.
func (b *Broker) LastOrders() []Order {
	if b.escalator == nil {
		return nil
	}
	return b.escalator.Orders()
}

// Trace returns the decision trace, or nil when tracing is off.
func (b *Broker) Trace() *trace.BrokerTrace { return b.trace }
