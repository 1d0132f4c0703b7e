package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(pop, subscribed int, bootstrapMode bool) *CustomerRecord {
	c := &CustomerInfo{Name: "village", Population: pop, PowerType: Consumption}
	return NewCustomerRecord(c, subscribed, testBase, time.Hour, bootstrapMode)
}

func TestCustomerRecord_Signup_NeverExceedsPopulation(t *testing.T) {
	tests := []struct {
		name       string
		subscribed int
		signup     int
		want       int
	}{
		{"within population", 100, 200, 300},
		{"exactly population", 400, 600, 1000},
		{"beyond population", 900, 500, 1000},
		{"zero signup", 10, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRecord(1000, tt.subscribed, false)
			r.Signup(tt.signup)
			assert.Equal(t, tt.want, r.SubscribedPopulation)
		})
	}
}

func TestCustomerRecord_SignupWithdrawSequence_StaysInBounds(t *testing.T) {
	// GIVEN a record and a sequence of signups and bounded withdrawals
	r := newRecord(1000, 0, false)
	ops := []int{300, 500, -200, 700, -1000, 50, -50, 2000}

	// WHEN the sequence is applied
	for _, n := range ops {
		if n >= 0 {
			r.Signup(n)
		} else {
			r.Withdraw(-n)
		}
		// THEN the population stays in [0, population] after every step
		assert.GreaterOrEqual(t, r.SubscribedPopulation, 0)
		assert.LessOrEqual(t, r.SubscribedPopulation, 1000)
	}
	assert.Equal(t, 1000, r.SubscribedPopulation)
}

func TestCustomerRecord_Withdraw_ClampsAtZero(t *testing.T) {
	r := newRecord(1000, 100, false)
	r.Withdraw(250)
	assert.Equal(t, 0, r.SubscribedPopulation)
}

func TestCustomerRecord_Record_FirstWriteStoresPerCapita(t *testing.T) {
	for _, idx := range []int{0, 5, 167, 168, 200, 1000} {
		// GIVEN an empty ring
		r := newRecord(1000, 500, false)

		// WHEN one value is recorded
		r.Record(-250, idx)

		// THEN the slot holds kWh / population
		assert.Equal(t, -0.5, r.PerCapita(idx%UsageRecordLength), "index %d", idx)
	}
}

func TestCustomerRecord_Record_SecondWriteIsSmoothed(t *testing.T) {
	// GIVEN a record with population 1000
	r := newRecord(1000, 1000, false)

	// WHEN two values land in the same slot a week apart
	r.Record(-1000, 30)
	r.Record(-2000, 30+UsageRecordLength)

	// THEN the slot holds alpha*p2 + (1-alpha)*p1
	want := SmoothingAlpha*(-2.0) + (1-SmoothingAlpha)*(-1.0)
	assert.InDelta(t, want, r.PerCapita(30), 1e-12)
}

func TestCustomerRecord_Predict_ScalesWithCurrentPopulation(t *testing.T) {
	// GIVEN a per-capita profile written at population 1000
	r := newRecord(1000, 1000, false)
	r.Record(-1000, 7)

	// WHEN half the customers withdraw
	r.Withdraw(500)

	// THEN the prediction follows the new population
	assert.Equal(t, -500.0, r.Predict(7))
	assert.Equal(t, -500.0, r.Predict(7+UsageRecordLength))
}

func TestCustomerRecord_Predict_NegativeIndexClampsToZero(t *testing.T) {
	r := newRecord(1000, 1000, false)
	r.Record(-3000, 0)
	assert.Equal(t, -3000.0, r.Predict(-5))
}

func TestCustomerRecord_Record_NoSubscribersLeavesRingUntouched(t *testing.T) {
	// GIVEN a bootstrap-mode record whose population dropped to zero
	r := newRecord(1000, 0, true)

	// WHEN usage arrives
	r.Record(-100, 3)

	// THEN the raw series records it but the ring does not
	assert.Equal(t, []float64{0, 0, 0, -100}, r.BootstrapUsage(10))
	assert.Equal(t, 0.0, r.PerCapita(3))
}

func TestCustomerRecord_RecordAt_ConvertsInstantToIndex(t *testing.T) {
	r := newRecord(1000, 1000, false)
	r.RecordAt(-2000, testBase.Add(172*time.Hour))
	assert.Equal(t, 172, r.IndexOf(testBase.Add(172*time.Hour+30*time.Minute)))
	assert.Equal(t, -2.0, r.PerCapita(4))
}

func TestCustomerRecord_BootstrapUsage_FillsGapsAndAccumulates(t *testing.T) {
	// GIVEN a bootstrap-mode record
	r := newRecord(1000, 1000, true)

	// WHEN values arrive with a gap and a repeated index
	r.Record(-1, 0)
	r.Record(-2, 3)
	r.Record(-5, 3)
	r.Record(-4, -1)

	// THEN the gap is zero-filled, the repeat is summed and the negative index dropped
	require.Equal(t, []float64{-1, 0, 0, -7}, r.BootstrapUsage(100))

	// AND the trailing view keeps the newest entries in order
	assert.Equal(t, []float64{0, -7}, r.BootstrapUsage(2))
	assert.Empty(t, r.BootstrapUsage(0))
}

func TestCustomerRecord_SimMode_KeepsNoRawSeries(t *testing.T) {
	r := newRecord(1000, 1000, false)
	r.Record(-1, 0)
	assert.Empty(t, r.BootstrapUsage(10))
}

func TestRingIndex_WrapsNegative(t *testing.T) {
	assert.Equal(t, 0, ringIndex(0))
	assert.Equal(t, 167, ringIndex(-1))
	assert.Equal(t, 1, ringIndex(169))
}
