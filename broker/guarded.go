package broker

import (
	"sync"

	"github.com/tac-sim/default-broker/broker/trace"
)

// Guarded serializes access to a Broker behind a single mutex so a host can
// deliver messages on one goroutine while readers inspect state on others.
// The book, the order table and the bootstrap buffers are cross-referenced,
// so they share one lock.
type Guarded struct {
	mu sync.Mutex
	b  *Broker
}

// NewGuarded wraps b.
func NewGuarded(b *Broker) *Guarded {
	return &Guarded{b: b}
}

// Receive delivers msg under the lock.
func (g *Guarded) Receive(msg Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.b.Receive(msg)
}

// Name returns the wrapped broker's name.
func (g *Guarded) Name() string {
	return g.b.Name()
}

// CustomerCounts returns a copy of the subscribed populations.
func (g *Guarded) CustomerCounts() map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.b.CustomerCounts()
}

// LastOrders returns a copy of the live last-order table.
func (g *Guarded) LastOrders() []Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.b.LastOrders()
}

// CollectBootstrapData returns the bootstrap snapshot.
func (g *Guarded) CollectBootstrapData(maxTimeslots int) []Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.b.CollectBootstrapData(maxTimeslots)
}

// TraceSummary summarizes the decision trace, or returns nil when tracing is off.
func (g *Guarded) TraceSummary() *trace.TraceSummary {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.b.Trace() == nil {
		return nil
	}
	return trace.Summarize(g.b.Trace())
}

// With runs fn with exclusive access to the broker.
func (g *Guarded) With(fn func(b *Broker)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.b)
}
