// Package trace provides decision-trace recording for the broker's wholesale
// trading. It has no dependencies on broker/ and stores pure data types.
package trace

// OrderRecord captures one order and how its limit price was chosen.
type OrderRecord struct {
	OrderID        string
	Timeslot       int // delivery timeslot
	Current        int // timeslot in which the order was placed
	MWh            float64
	LimitPrice     float64
	StartPrice     float64
	Floor          float64
	RemainingTries int
	Escalated      bool // started from the previous attempt's limit
}

// ClearingRecord captures one market transaction seen by the broker.
type ClearingRecord struct {
	Timeslot     int
	MWh          float64
	Price        float64
	FullyCleared bool
}
