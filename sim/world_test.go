package sim

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tac-sim/default-broker/broker"
	"github.com/tac-sim/default-broker/broker/bootstrap"
)

// tapRouter records every order and forwards it.
type tapRouter struct {
	inner  broker.OrderRouter
	orders []broker.Order
}

func (r *tapRouter) RouteOrder(o *broker.Order) {
	r.orders = append(r.orders, *o)
	r.inner.RouteOrder(o)
}

func runTapped(t *testing.T, s *Scenario, n int) (*World, *tapRouter) {
	t.Helper()
	tap := &tapRouter{}
	w, err := NewWorld(s, WithRouter(func(inner broker.OrderRouter) broker.OrderRouter {
		tap.inner = inner
		return tap
	}))
	require.NoError(t, err)
	require.NoError(t, w.Run(context.Background(), n))
	return w, tap
}

// smallBootstrapScenario records 48 timeslots after discarding 24.
func smallBootstrapScenario() *Scenario {
	s := DefaultScenario()
	s.Mode = "bootstrap"
	s.Competition.BootstrapTimeslotCount = 48
	s.Competition.BootstrapDiscardedTimeslots = 24
	return s
}

func TestNewWorld_RejectsInvalidScenario(t *testing.T) {
	s := DefaultScenario()
	s.Customers = nil
	_, err := NewWorld(s)
	assert.Error(t, err)
}

func TestWorld_SameSeed_IdenticalOrders(t *testing.T) {
	// GIVEN two worlds built from the same seed
	_, a := runTapped(t, DefaultScenario(), 48)
	_, b := runTapped(t, DefaultScenario(), 48)

	// THEN the order streams match exactly
	require.NotEmpty(t, a.orders)
	assert.Equal(t, a.orders, b.orders)

	// AND a different seed changes them
	other := DefaultScenario()
	other.Seed = 43
	_, c := runTapped(t, other, 48)
	assert.NotEqual(t, a.orders, c.orders)
}

func TestWorld_Step_SubscribesAndTrades(t *testing.T) {
	s := DefaultScenario()
	s.Broker.Trace = "decisions"
	w, tap := runTapped(t, s, 48)

	assert.Equal(t, 48, w.Steps())
	assert.Equal(t, 48, w.Clock().CurrentTimeslot())
	assert.Equal(t, map[string]int{
		"villageCONSUMPTION":   1000,
		"solar farmPRODUCTION": 10,
	}, w.Broker().CustomerCounts())

	// every order targets an enabled timeslot at the time it was placed
	for _, o := range tap.orders {
		assert.Equal(t, "default broker", o.Broker)
		assert.Greater(t, o.Timeslot, 0)
	}
	summary := w.Broker().TraceSummary()
	require.NotNil(t, summary)
	assert.Equal(t, len(tap.orders), summary.TotalOrders)
	assert.Positive(t, summary.FullClearings)
}

func TestWorld_Run_HonorsCancelledContext(t *testing.T) {
	w, err := NewWorld(DefaultScenario())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = w.Run(ctx, 10)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, w.Steps())
}

func TestWorld_BootstrapDataset_RequiresBootstrapMode(t *testing.T) {
	w, err := NewWorld(DefaultScenario())
	require.NoError(t, err)
	_, err = w.BootstrapDataset()
	assert.Error(t, err)
}

func TestWorld_BootstrapThenReplay(t *testing.T) {
	// GIVEN a completed bootstrap run
	bs := smallBootstrapScenario()
	bw, err := NewWorld(bs)
	require.NoError(t, err)
	require.NoError(t, bw.Run(context.Background(), bs.RunLength()))

	ds, err := bw.BootstrapDataset()
	require.NoError(t, err)
	assert.Equal(t, 24, ds.BootstrapOffset)
	require.Len(t, ds.CustomerData(), 2)
	for _, cbd := range ds.CustomerData() {
		assert.Len(t, cbd.NetUsage, 48)
	}
	mbd, ok := ds.MarketData()
	require.True(t, ok)
	assert.Len(t, mbd.MarketPrice, 48)
	assert.Len(t, ds.WeatherReports(), 48)
	pc, ok := ds.PluginConfig(broker.RoleName)
	require.True(t, ok)
	assert.Equal(t, "default broker", pc.Name)

	// WHEN the dataset goes through XML and primes a sim world
	var buf bytes.Buffer
	require.NoError(t, bootstrap.Write(&buf, ds))
	loaded, err := bootstrap.Read(&buf)
	require.NoError(t, err)

	sw, err := NewWorld(DefaultScenario())
	require.NoError(t, err)
	require.NoError(t, sw.Replay(loaded))

	// THEN the clock resumes after the recorded series
	assert.Equal(t, 72, sw.Clock().CurrentTimeslot())

	// AND the first simulated timeslot already trades on the primed profile
	sw.Step()
	assert.Positive(t, sw.Market().Pending())
	assert.Equal(t, 1000, sw.Broker().CustomerCounts()["villageCONSUMPTION"])

	// AND replay is refused once the world has started
	assert.Error(t, sw.Replay(loaded))
}
