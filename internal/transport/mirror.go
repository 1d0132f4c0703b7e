// Package transport mirrors broker traffic onto NATS.
package transport

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/tac-sim/default-broker/broker"
)

// Publisher is the subset of *nats.Conn the mirror needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// OrderEvent is the JSON payload published for each order.
type OrderEvent struct {
	ID         string  `json:"id"`
	Broker     string  `json:"broker"`
	Timeslot   int     `json:"timeslot"`
	MWh        float64 `json:"mwh"`
	LimitPrice float64 `json:"limit_price"`
}

// OrderMirror implements broker.OrderRouter. Every order goes to the inner
// router first and is then published; a failed publish is logged and the
// order still stands.
type OrderMirror struct {
	inner   broker.OrderRouter
	pub     Publisher
	subject string
	failed  int
}

// Subject returns the subject a broker's orders are published on. Characters
// NATS reserves in subject tokens are replaced with underscores.
func Subject(brokerName string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r), r == '.', r == '*', r == '>':
			return '_'
		}
		return r
	}, brokerName)
	return fmt.Sprintf("broker.%s.orders", token)
}

// NewOrderMirror wraps inner, publishing to Subject(brokerName).
func NewOrderMirror(inner broker.OrderRouter, pub Publisher, brokerName string) *OrderMirror {
	return &OrderMirror{inner: inner, pub: pub, subject: Subject(brokerName)}
}

// RouteOrder implements broker.OrderRouter.
func (m *OrderMirror) RouteOrder(order *broker.Order) {
	m.inner.RouteOrder(order)
	payload, err := json.Marshal(OrderEvent{
		ID:         order.ID.String(),
		Broker:     order.Broker,
		Timeslot:   order.Timeslot,
		MWh:        order.MWh,
		LimitPrice: order.LimitPrice,
	})
	if err != nil {
		m.failed++
		logrus.Errorf("order mirror: marshal %s: %v", order, err)
		return
	}
	if err := m.pub.Publish(m.subject, payload); err != nil {
		m.failed++
		logrus.Warnf("order mirror: publish to %s failed: %v", m.subject, err)
	}
}

// Failed returns the number of orders that could not be mirrored.
func (m *OrderMirror) Failed() int {
	return m.failed
}

// Config holds NATS connection settings.
type Config struct {
	URL            string
	Name           string
	ReconnectWait  time.Duration
	MaxReconnects  int
	ConnectTimeout time.Duration
}

// DefaultConfig returns connection settings for a local server.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		Name:           "default-broker",
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  10,
		ConnectTimeout: 5 * time.Second,
	}
}

// Connect opens a NATS connection. The caller drains it when done.
func Connect(cfg Config) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logrus.Warnf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.Infof("nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}
