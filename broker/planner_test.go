package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPlanner_EmptyBook_NoOrders(t *testing.T) {
	// GIVEN a subscribed customer that has not reported usage
	h := newTestHost(t, false)
	h.signup("village", 1000)

	// WHEN the planner runs at timeslot 0
	h.endTimeslot()

	// THEN nothing is traded
	assert.Empty(t, h.router.orders)
	assert.Empty(t, h.broker.LastOrders())
}

func TestOrderPlanner_FirstDay_FallsBackToCurrentUsage(t *testing.T) {
	// GIVEN 1000 customers consuming 1000 kWh in timeslot 5
	h := newTestHost(t, false)
	h.clock.current = 5
	h.signup("village", 1000)
	h.usage("village", -1000, 5)

	// WHEN the planner runs
	h.endTimeslot()

	// THEN every enabled timeslot gets a 1 MWh buy
	enabled := h.clock.EnabledTimeslots()
	require.Len(t, h.router.orders, len(enabled))
	for i, o := range h.router.orders {
		assert.Equal(t, enabled[i], o.Timeslot)
		assert.Equal(t, 1.0, o.MWh, "timeslot %d", o.Timeslot)
		assert.True(t, o.IsBuy())
		assert.LessOrEqual(t, o.LimitPrice, -1.0)
		assert.GreaterOrEqual(t, o.LimitPrice, -100.0)
	}
	// AND the timeslot inside the deactivation horizon trades at the floor
	assert.Equal(t, -100.0, h.router.orders[0].LimitPrice)
}

func TestOrderPlanner_FirstWeek_UsesHourOfDay(t *testing.T) {
	// GIVEN usage recorded at hour-of-day 3 only
	h := newTestHost(t, false)
	h.clock.current = 50
	h.signup("village", 1000)
	h.usage("village", -3000, 3)

	// WHEN the planner runs on day three
	h.endTimeslot()

	// THEN only timeslot 51 (hour 3) is traded, from slot 3 of the ring
	require.Len(t, h.router.orders, 1)
	assert.Equal(t, 51, h.router.orders[0].Timeslot)
	assert.Equal(t, 3.0, h.router.orders[0].MWh)
}

func TestOrderPlanner_AfterFirstWeek_UsesHourOfWeek(t *testing.T) {
	// GIVEN distinct values in ring slots 33 (hour of week) and 9 (hour of day)
	h := newTestHost(t, false)
	h.clock.current = 200
	h.signup("village", 1000)
	h.usage("village", -2000, 201)
	h.usage("village", -5000, 9)

	// WHEN the planner runs past the first week
	h.endTimeslot()

	// THEN timeslot 201 is sized from slot 201 mod 168, not 201 mod 24
	require.Len(t, h.router.orders, 1)
	o := h.router.orders[0]
	assert.Equal(t, 201, o.Timeslot)
	assert.Equal(t, 2.0, o.MWh)
}

func TestOrderPlanner_NetsMarketPosition(t *testing.T) {
	tests := []struct {
		name     string
		position float64
		wantMWh  float64
		wantNone bool
	}{
		{"no position", 0, 1.0, false},
		{"partly covered", 0.25, 0.75, false},
		{"fully covered", 1.0, 0, true},
		{"over covered", 1.5, -0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a 1 MWh need in every timeslot and a position in timeslot 7
			h := newTestHost(t, false)
			h.clock.current = 5
			h.signup("village", 1000)
			h.usage("village", -1000, 5)
			h.positions[7] = &MarketPosition{Timeslot: 7, OverallBalance: tt.position}

			// WHEN the planner runs
			h.endTimeslot()

			// THEN the order for timeslot 7 trades need minus position
			orders := h.router.forTimeslot(7)
			if tt.wantNone {
				assert.Empty(t, orders)
				return
			}
			require.Len(t, orders, 1)
			assert.InDelta(t, tt.wantMWh, orders[0].MWh, 1e-12)
			assert.Equal(t, tt.wantMWh > 0, orders[0].IsBuy())
		})
	}
}

func TestOrderPlanner_Producer_Sells(t *testing.T) {
	// GIVEN a producer only
	h := newTestHost(t, false)
	h.clock.current = 2
	h.signup("solar farm", 10)
	h.usage("solar farm", 500, 2)

	// WHEN the planner runs
	h.endTimeslot()

	// THEN the broker sells the surplus
	require.NotEmpty(t, h.router.orders)
	for _, o := range h.router.orders {
		assert.Equal(t, -0.5, o.MWh)
		assert.GreaterOrEqual(t, o.LimitPrice, 0.2)
	}
}

func TestOrderPlanner_OrderIDsAreDeterministic(t *testing.T) {
	run := func() []string {
		h := newTestHost(t, false)
		h.clock.current = 5
		h.signup("village", 1000)
		h.usage("village", -1000, 5)
		h.endTimeslot()
		var ids []string
		for _, o := range h.router.orders {
			ids = append(ids, o.ID.String())
		}
		return ids
	}
	first, second := run(), run()
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}
