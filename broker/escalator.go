package broker

import (
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

// LimitDecision explains how a limit price was chosen.
type LimitDecision struct {
	LimitPrice     float64
	StartPrice     float64
	Floor          float64
	RemainingTries int
	Escalated      bool // StartPrice came from the previous order
}

// PriceEscalator chooses limit prices that walk from the start price toward
// the floor as delivery approaches. It owns the table of the last order
// placed in each open timeslot; a full clearing removes the entry so the next
// attempt starts over.
type PriceEscalator struct {
	cfg        Config
	deactivate int // timeslots ahead of current that no longer trade
	rng        *rand.Rand
	lastOrder  map[int]*Order
}

// NewPriceEscalator creates an escalator drawing from rng.
func NewPriceEscalator(cfg Config, deactivateTimeslotsAhead int, rng *rand.Rand) *PriceEscalator {
	return &PriceEscalator{
		cfg:        cfg,
		deactivate: deactivateTimeslotsAhead,
		rng:        rng,
		lastOrder:  make(map[int]*Order),
	}
}

// LimitPrice returns the limit for an order of mwh in timeslot, placed
// while current is the running timeslot. One random value is drawn when at
// least one attempt remains after this one.
func (e *PriceEscalator) LimitPrice(timeslot, current int, mwh float64) LimitDecision {
	d := LimitDecision{}
	if mwh > 0.0 {
		d.StartPrice = e.cfg.BuyLimitPriceMax
		d.Floor = e.cfg.BuyLimitPriceMin
	} else {
		d.StartPrice = e.cfg.SellLimitPriceMax
		d.Floor = e.cfg.SellLimitPriceMin
	}
	if last, ok := e.lastOrder[timeslot]; ok && sign(last.MWh) == sign(mwh) {
		d.StartPrice = last.LimitPrice
		d.Escalated = true
	}

	d.LimitPrice = d.Floor
	d.RemainingTries = timeslot - current - e.deactivate
	if d.RemainingTries > 0 {
		span := (d.Floor - d.StartPrice) * 2.0 / float64(d.RemainingTries)
		computed := d.StartPrice + e.rng.Float64()*span
		logrus.Debugf("start=%g, range=%g", d.StartPrice, span)
		d.LimitPrice = max(d.LimitPrice, computed)
	}
	return d
}

// Remember stores order as the last attempt for its timeslot.
func (e *PriceEscalator) Remember(order *Order) {
	e.lastOrder[order.Timeslot] = order
}

// Last returns the last attempt for timeslot, if it is still live.
func (e *PriceEscalator) Last(timeslot int) (*Order, bool) {
	o, ok := e.lastOrder[timeslot]
	return o, ok
}

// Observe applies a clearing. A transaction whose MWh equals the last
// order's MWh exactly means the order fully cleared; partial clearings leave
// the entry alone. It returns true on a full clearing.
func (e *PriceEscalator) Observe(tx *MarketTransaction) bool {
	last, ok := e.lastOrder[tx.Timeslot]
	if !ok {
		logrus.Errorf("no live order corresponding to market tx ts=%d mwh=%g price=%g",
			tx.Timeslot, tx.MWh, tx.Price)
		return false
	}
	if tx.MWh != last.MWh {
		return false
	}
	delete(e.lastOrder, tx.Timeslot)
	return true
}

// Prune drops entries for timeslots before current; they can no longer trade.
func (e *PriceEscalator) Prune(current int) {
	for ts := range e.lastOrder {
		if ts < current {
			delete(e.lastOrder, ts)
		}
	}
}

// Orders returns the live table sorted by timeslot.
func (e *PriceEscalator) Orders() []Order {
	out := make([]Order, 0, len(e.lastOrder))
	for _, o := range e.lastOrder {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timeslot < out[j].Timeslot })
	return out
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
