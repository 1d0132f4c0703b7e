package sim

import (
	"container/heap"

	"github.com/tac-sim/default-broker/broker"
)

// Receiver accepts messages from the bus. Both *broker.Broker and
// *broker.Guarded satisfy it.
type Receiver interface {
	Receive(msg broker.Message)
}

// KindPriority orders messages within a timeslot. Transactions come first,
// so escalation resets apply before trading; CashPosition comes last because
// it triggers trading.
var KindPriority = map[string]int{
	"CustomerBootstrapData": 0,
	"TariffTransaction":     1,
	"MarketTransaction":     2,
	"WeatherReport":         3,
	"MarketPosition":        4,
	"TimeslotUpdate":        5,
	"CashPosition":          6,
}

type envelope struct {
	timeslot int
	priority int
	seq      int64
	msg      broker.Message
}

// Bus is a message queue with deterministic delivery order:
// timeslot → kind priority → posting order.
type Bus struct {
	events  []envelope
	nextSeq int64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	b := &Bus{events: make([]envelope, 0)}
	heap.Init(b)
	return b
}

// Len implements heap.Interface
func (b *Bus) Len() int {
	return len(b.events)
}

// Less implements heap.Interface with deterministic ordering
func (b *Bus) Less(i, j int) bool {
	ei, ej := b.events[i], b.events[j]
	if ei.timeslot != ej.timeslot {
		return ei.timeslot < ej.timeslot
	}
	if ei.priority != ej.priority {
		return ei.priority < ej.priority
	}
	return ei.seq < ej.seq
}

// Swap implements heap.Interface
func (b *Bus) Swap(i, j int) {
	b.events[i], b.events[j] = b.events[j], b.events[i]
}

// Push implements heap.Interface
func (b *Bus) Push(x any) {
	b.events = append(b.events, x.(envelope))
}

// Pop implements heap.Interface
func (b *Bus) Pop() any {
	old := b.events
	n := len(old)
	item := old[n-1]
	b.events = old[0 : n-1]
	return item
}

// Post queues msg for delivery in timeslot. Unknown kinds sort after
// everything else.
func (b *Bus) Post(timeslot int, msg broker.Message) {
	pri, ok := KindPriority[broker.KindOf(msg)]
	if !ok {
		pri = len(KindPriority)
	}
	heap.Push(b, envelope{timeslot: timeslot, priority: pri, seq: b.nextSeq, msg: msg})
	b.nextSeq++
}

// Deliver hands every message queued for timeslots up to and including
// timeslot to r, in order. It returns the number delivered.
func (b *Bus) Deliver(timeslot int, r Receiver) int {
	n := 0
	for b.Len() > 0 && b.events[0].timeslot <= timeslot {
		e := heap.Pop(b).(envelope)
		r.Receive(e.msg)
		n++
	}
	return n
}
