package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"", true},
		{"none", true},
		{"decisions", true},
		{"verbose", false},
		{"NONE", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidTraceLevel(tt.level))
		})
	}
}

func TestTraceConfig_Enabled(t *testing.T) {
	assert.False(t, TraceConfig{}.Enabled())
	assert.False(t, TraceConfig{Level: TraceLevelNone}.Enabled())
	assert.True(t, TraceConfig{Level: TraceLevelDecisions}.Enabled())
}

func TestBrokerTrace_RecordsInOrder(t *testing.T) {
	// GIVEN an empty trace
	bt := NewBrokerTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN records are added
	bt.RecordOrder(OrderRecord{OrderID: "a", Timeslot: 3})
	bt.RecordOrder(OrderRecord{OrderID: "b", Timeslot: 4})
	bt.RecordClearing(ClearingRecord{Timeslot: 3, MWh: 1})

	// THEN they are kept in arrival order
	assert.Len(t, bt.Orders, 2)
	assert.Equal(t, "a", bt.Orders[0].OrderID)
	assert.Equal(t, "b", bt.Orders[1].OrderID)
	assert.Len(t, bt.Clearings, 1)
}
