package broker

import (
	"time"

	"github.com/sirupsen/logrus"
)

// CustomerRecord tracks the subscribed population and usage profile of one
// customer class under one tariff.
//
// Usage is stored per capita and reported as the product of the per-capita
// value and the current subscribed population, so history stays useful as
// the population shifts. The ring holds one exponentially smoothed value per
// hour of the week; a slot holding exactly 0 is treated as never written.
type CustomerRecord struct {
	Customer             *CustomerInfo
	SubscribedPopulation int

	usage          []float64
	bootstrapUsage []float64 // raw kWh by absolute timeslot; bootstrap mode only
	bootstrapMode  bool

	base     time.Time // start of timeslot 0
	duration time.Duration
	alpha    float64
}

// NewCustomerRecord creates a record with the given initial population.
// base and duration convert posted instants into timeslot indices.
func NewCustomerRecord(customer *CustomerInfo, population int, base time.Time, duration time.Duration, bootstrapMode bool) *CustomerRecord {
	return &CustomerRecord{
		Customer:             customer,
		SubscribedPopulation: population,
		usage:                make([]float64, UsageRecordLength),
		bootstrapMode:        bootstrapMode,
		base:                 base,
		duration:             duration,
		alpha:                SmoothingAlpha,
	}
}

// Signup adds individuals, never exceeding the class population.
func (r *CustomerRecord) Signup(n int) {
	r.SubscribedPopulation = min(r.Customer.Population, r.SubscribedPopulation+n)
}

// Withdraw removes individuals. The count is clamped at zero.
func (r *CustomerRecord) Withdraw(n int) {
	r.SubscribedPopulation -= n
	if r.SubscribedPopulation < 0 {
		logrus.Warnf("customer %s withdrew %d, more than subscribed; clamping population at 0",
			r.Customer.Name, n)
		r.SubscribedPopulation = 0
	}
}

// RecordAt stores kwh observed at the given instant.
func (r *CustomerRecord) RecordAt(kwh float64, when time.Time) {
	r.Record(kwh, r.IndexOf(when))
}

// Record stores kwh observed at the absolute timeslot rawIndex.
func (r *CustomerRecord) Record(kwh float64, rawIndex int) {
	if r.bootstrapMode {
		r.recordRaw(kwh, rawIndex)
	}
	if r.SubscribedPopulation <= 0 {
		logrus.Warnf("usage %g for customer %s with no subscribers; profile not updated",
			kwh, r.Customer.Name)
		return
	}
	index := ringIndex(rawIndex)
	perCapita := kwh / float64(r.SubscribedPopulation)
	old := r.usage[index]
	if old == 0.0 {
		r.usage[index] = perCapita
	} else {
		r.usage[index] = r.alpha*perCapita + (1.0-r.alpha)*old
	}
	logrus.Debugf("usage %g at %d, customer %s", kwh, index, r.Customer.Name)
}

// recordRaw appends to the bootstrap series, zero-filling any gap, or adds
// to an existing entry.
func (r *CustomerRecord) recordRaw(kwh float64, rawIndex int) {
	if rawIndex < 0 {
		logrus.Warnf("bootstrap usage for customer %s at negative index %d dropped", r.Customer.Name, rawIndex)
		return
	}
	if rawIndex < len(r.bootstrapUsage) {
		r.bootstrapUsage[rawIndex] += kwh
		return
	}
	for len(r.bootstrapUsage) < rawIndex {
		r.bootstrapUsage = append(r.bootstrapUsage, 0.0)
	}
	r.bootstrapUsage = append(r.bootstrapUsage, kwh)
}

// Predict returns the expected kWh for the population at rawIndex.
func (r *CustomerRecord) Predict(rawIndex int) float64 {
	if rawIndex < 0 {
		logrus.Warnf("usage requested for negative index %d", rawIndex)
		rawIndex = 0
	}
	return r.usage[ringIndex(rawIndex)] * float64(r.SubscribedPopulation)
}

// PerCapita returns the smoothed per-capita value stored for rawIndex.
func (r *CustomerRecord) PerCapita(rawIndex int) float64 {
	return r.usage[ringIndex(rawIndex)]
}

// BootstrapUsage returns the trailing maxTimeslots entries of the raw series.
func (r *CustomerRecord) BootstrapUsage(maxTimeslots int) []float64 {
	return tail(r.bootstrapUsage, maxTimeslots)
}

// IndexOf converts an instant into a timeslot index. This assumes timeslot
// serial numbers count the timeslots elapsed since the base instant.
func (r *CustomerRecord) IndexOf(when time.Time) int {
	if r.duration <= 0 {
		return 0
	}
	return int(when.Sub(r.base) / r.duration)
}

func ringIndex(rawIndex int) int {
	i := rawIndex % UsageRecordLength
	if i < 0 {
		i += UsageRecordLength
	}
	return i
}

// tail returns a copy of the last n entries of s (all of s if shorter).
func tail[T any](s []T, n int) []T {
	start := max(0, len(s)-max(n, 0))
	out := make([]T, len(s)-start)
	copy(out, s[start:])
	return out
}
