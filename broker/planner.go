package broker

import (
	"github.com/sirupsen/logrus"

	"github.com/tac-sim/default-broker/broker/trace"
)

// OrderPlanner turns the usage forecast into wholesale orders, once per
// timeslot.
type OrderPlanner struct {
	name      string
	book      *SubscriptionBook
	escalator *PriceEscalator
	clock     Clock
	positions PositionLookup
	router    OrderRouter
	trace     *trace.BrokerTrace // nil when tracing is off
	seq       int64
}

// NewOrderPlanner wires a planner. positions and tr may be nil.
func NewOrderPlanner(name string, book *SubscriptionBook, escalator *PriceEscalator, clock Clock,
	positions PositionLookup, router OrderRouter, tr *trace.BrokerTrace) *OrderPlanner {
	return &OrderPlanner{
		name:      name,
		book:      book,
		escalator: escalator,
		clock:     clock,
		positions: positions,
		router:    router,
		trace:     tr,
	}
}

// Activate trades every enabled timeslot to cover predicted usage.
//
// The planner runs after customers have reported usage for the current
// timeslot, for a clearing at the start of the next one. For the first day
// it looks up the same hour of day and falls back to current usage for
// hours not yet seen. Through the first week it uses the same hour of day,
// and after that the same hour of the week.
func (p *OrderPlanner) Activate() []*Order {
	current := p.clock.CurrentTimeslot()
	logrus.Infof("activate: timeslot %d", current)
	p.escalator.Prune(current)

	var placed []*Order
	switch {
	case current < 24:
		currentKWh := p.book.CollectUsage(current)
		for _, ts := range p.clock.EnabledTimeslots() {
			needed := p.book.CollectUsage(ts % 24)
			if needed == 0.0 {
				needed = currentKWh
			}
			placed = p.appendOrder(placed, ts, current, needed)
		}
	case current <= UsageRecordLength:
		for _, ts := range p.clock.EnabledTimeslots() {
			placed = p.appendOrder(placed, ts, current, p.book.CollectUsage(ts%24))
		}
	default:
		for _, ts := range p.clock.EnabledTimeslots() {
			placed = p.appendOrder(placed, ts, current, p.book.CollectUsage(ts%UsageRecordLength))
		}
	}
	return placed
}

func (p *OrderPlanner) appendOrder(placed []*Order, timeslot, current int, neededKWh float64) []*Order {
	if o := p.submitOrder(timeslot, current, neededKWh); o != nil {
		placed = append(placed, o)
	}
	return placed
}

// submitOrder nets the need against the current position and routes an
// order for the remainder. It returns nil when nothing needs trading.
func (p *OrderPlanner) submitOrder(timeslot, current int, neededKWh float64) *Order {
	neededMWh := neededKWh / 1000.0
	if p.positions != nil {
		if posn, ok := p.positions.FindMarketPosition(timeslot); ok && posn != nil {
			neededMWh -= posn.OverallBalance
		}
	}
	logrus.Debugf("needed mWh=%g", neededMWh)
	if neededMWh == 0.0 {
		logrus.Infof("no power required in timeslot %d", timeslot)
		return nil
	}

	d := p.escalator.LimitPrice(timeslot, current, neededMWh)
	logrus.Infof("new order for %g at %g in timeslot %d", neededMWh, d.LimitPrice, timeslot)
	p.seq++
	order := NewOrder(p.name, p.seq, timeslot, neededMWh, d.LimitPrice)
	p.escalator.Remember(order)
	if p.trace != nil {
		p.trace.RecordOrder(trace.OrderRecord{
			OrderID:        order.ID.String(),
			Timeslot:       timeslot,
			Current:        current,
			MWh:            neededMWh,
			LimitPrice:     d.LimitPrice,
			StartPrice:     d.StartPrice,
			Floor:          d.Floor,
			RemainingTries: d.RemainingTries,
			Escalated:      d.Escalated,
		})
	}
	if p.router != nil {
		p.router.RouteOrder(order)
	}
	return order
}
