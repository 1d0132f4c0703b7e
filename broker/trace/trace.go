package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every order and every clearing the broker sees.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// Enabled reports whether anything will be recorded.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelDecisions
}

// BrokerTrace collects decision records during a run.
type BrokerTrace struct {
	Config    TraceConfig
	Orders    []OrderRecord
	Clearings []ClearingRecord
}

// NewBrokerTrace creates a BrokerTrace ready for recording.
func NewBrokerTrace(config TraceConfig) *BrokerTrace {
	return &BrokerTrace{
		Config:    config,
		Orders:    make([]OrderRecord, 0),
		Clearings: make([]ClearingRecord, 0),
	}
}

// RecordOrder appends an order decision record.
func (bt *BrokerTrace) RecordOrder(record OrderRecord) {
	bt.Orders = append(bt.Orders, record)
}

// RecordClearing appends a clearing record.
func (bt *BrokerTrace) RecordClearing(record ClearingRecord) {
	bt.Clearings = append(bt.Clearings, record)
}
