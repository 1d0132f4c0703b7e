package trace

import "math"

// TraceSummary aggregates statistics from a BrokerTrace.
type TraceSummary struct {
	TotalOrders      int     `json:"total_orders"`
	BuyOrders        int     `json:"buy_orders"`
	SellOrders       int     `json:"sell_orders"`
	EscalatedOrders  int     `json:"escalated_orders"`
	FloorOrders      int     `json:"floor_orders"` // orders placed with no tries left
	FullClearings    int     `json:"full_clearings"`
	PartialClearings int     `json:"partial_clearings"`
	ClearedMWh       float64 `json:"cleared_mwh"`
	MeanFloorGap     float64 `json:"mean_floor_gap"` // mean |limit - floor| over all orders
}

// Summarize computes aggregate statistics from a BrokerTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(bt *BrokerTrace) *TraceSummary {
	summary := &TraceSummary{}
	if bt == nil {
		return summary
	}

	summary.TotalOrders = len(bt.Orders)
	totalGap := 0.0
	for _, o := range bt.Orders {
		if o.MWh > 0 {
			summary.BuyOrders++
		} else {
			summary.SellOrders++
		}
		if o.Escalated {
			summary.EscalatedOrders++
		}
		if o.RemainingTries <= 0 {
			summary.FloorOrders++
		}
		totalGap += math.Abs(o.LimitPrice - o.Floor)
	}
	if len(bt.Orders) > 0 {
		summary.MeanFloorGap = totalGap / float64(len(bt.Orders))
	}

	for _, c := range bt.Clearings {
		if c.FullyCleared {
			summary.FullClearings++
		} else {
			summary.PartialClearings++
		}
		summary.ClearedMWh += c.MWh
	}

	return summary
}
