package broker

import "github.com/sirupsen/logrus"

// BootstrapRecorder accumulates the dataset a bootstrap run exports:
// wholesale clearings condensed to one (MWh, VWAP) pair per timeslot, and
// every weather report. Customer usage lives in the CustomerRecords.
type BootstrapRecorder struct {
	marketTx    map[int][]MarketTransaction
	marketMWh   []float64
	marketPrice []float64
	weather     []WeatherReport
}

// NewBootstrapRecorder creates an empty recorder.
func NewBootstrapRecorder() *BootstrapRecorder {
	return &BootstrapRecorder{
		marketTx: make(map[int][]MarketTransaction),
	}
}

// AddMarketTransaction stores tx under its timeslot.
func (r *BootstrapRecorder) AddMarketTransaction(tx *MarketTransaction) {
	r.marketTx[tx.Timeslot] = append(r.marketTx[tx.Timeslot], *tx)
}

// AddWeatherReport appends a weather report.
func (r *BootstrapRecorder) AddWeatherReport(report *WeatherReport) {
	r.weather = append(r.weather, *report)
}

// RecordDeliveredPrice condenses the transactions of timeslot into total MWh
// bought and the volume-weighted price paid. Sales are excluded. With no
// purchases the price is recorded as 0. Balancing cost is not modelled.
func (r *BootstrapRecorder) RecordDeliveredPrice(timeslot int) (totalMWh, vwap float64) {
	totalCost := 0.0
	for _, tx := range r.marketTx[timeslot] {
		if tx.MWh > 0.0 {
			logrus.Infof("record price: mwh=%g, price=%g", tx.MWh, tx.Price)
			totalMWh += tx.MWh
			totalCost += tx.Price * tx.MWh
		}
	}
	if totalMWh != 0.0 {
		vwap = totalCost / totalMWh
	}
	logrus.Infof("market totals: mwh=%g, price=%g", totalMWh, vwap)
	r.marketMWh = append(r.marketMWh, totalMWh)
	r.marketPrice = append(r.marketPrice, vwap)
	delete(r.marketTx, timeslot)
	return totalMWh, vwap
}

// MarketBootstrapData returns the trailing maxTimeslots (MWh, price) pairs.
// If the sequences ever disagree in length the longer is cut to the shorter.
func (r *BootstrapRecorder) MarketBootstrapData(maxTimeslots int) *MarketBootstrapData {
	n := len(r.marketMWh)
	if len(r.marketPrice) != n {
		logrus.Errorf("marketMWh size %d != marketPrice size %d", len(r.marketMWh), len(r.marketPrice))
		n = min(n, len(r.marketPrice))
	}
	return &MarketBootstrapData{
		MWh:         tail(r.marketMWh[:n], maxTimeslots),
		MarketPrice: tail(r.marketPrice[:n], maxTimeslots),
	}
}

// WeatherReports returns the newest maxTimeslots reports, oldest first.
// The stored list is left intact.
func (r *BootstrapRecorder) WeatherReports(maxTimeslots int) []WeatherReport {
	return tail(r.weather, maxTimeslots)
}

// Len returns the number of timeslots condensed so far.
func (r *BootstrapRecorder) Len() int {
	return len(r.marketMWh)
}
