package transport

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tac-sim/default-broker/broker"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	sent []published
	err  error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{subject: subject, data: data})
	return nil
}

type sliceRouter struct {
	orders []*broker.Order
}

func (r *sliceRouter) RouteOrder(o *broker.Order) { r.orders = append(r.orders, o) }

func TestSubject(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"default broker", "broker.default_broker.orders"},
		{"a.b", "broker.a_b.orders"},
		{"wild*card>", "broker.wild_card_.orders"},
		{"plain", "broker.plain.orders"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Subject(tt.name))
		})
	}
}

func TestOrderMirror_RouteOrder_PublishesAfterRouting(t *testing.T) {
	// GIVEN a mirror over a working publisher
	inner := &sliceRouter{}
	pub := &fakePublisher{}
	m := NewOrderMirror(inner, pub, "default broker")
	order := broker.NewOrder("default broker", 3, 40, 1.25, -35)

	// WHEN an order is routed
	m.RouteOrder(order)

	// THEN the market sees it and its JSON lands on the broker's subject
	require.Len(t, inner.orders, 1)
	assert.Same(t, order, inner.orders[0])
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "broker.default_broker.orders", pub.sent[0].subject)
	var ev OrderEvent
	require.NoError(t, json.Unmarshal(pub.sent[0].data, &ev))
	assert.Equal(t, OrderEvent{
		ID:         order.ID.String(),
		Broker:     "default broker",
		Timeslot:   40,
		MWh:        1.25,
		LimitPrice: -35,
	}, ev)
	assert.Equal(t, 0, m.Failed())
}

func TestOrderMirror_RouteOrder_PublishFailureKeepsOrder(t *testing.T) {
	inner := &sliceRouter{}
	m := NewOrderMirror(inner, &fakePublisher{err: errors.New("nats: connection closed")}, "b")

	m.RouteOrder(broker.NewOrder("b", 1, 5, 1, -10))
	m.RouteOrder(broker.NewOrder("b", 2, 6, 1, -10))

	assert.Len(t, inner.orders, 2)
	assert.Equal(t, 2, m.Failed())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("nats://localhost:4222")

	assert.Equal(t, "nats://localhost:4222", cfg.URL)
	assert.Equal(t, "default-broker", cfg.Name)
	assert.Equal(t, 2*time.Second, cfg.ReconnectWait)
	assert.Equal(t, 10, cfg.MaxReconnects)
}
