package sim

import (
	"math"
	"math/rand"

	"github.com/tac-sim/default-broker/broker"
)

// warmestHour is the hour of day the temperature cycle peaks.
const warmestHour = 15

// Weather produces one synthetic report per timeslot.
type Weather struct {
	spec WeatherSpec
	rng  *rand.Rand
}

// NewWeather creates a weather source.
func NewWeather(spec WeatherSpec, rng *rand.Rand) *Weather {
	return &Weather{spec: spec, rng: rng}
}

// Report returns the observed weather for the timeslot.
func (w *Weather) Report(clock *Clock, timeslot int) *broker.WeatherReport {
	hour := clock.TimeslotStart(timeslot).Hour()
	phase := 2 * math.Pi * float64(hour-warmestHour) / 24
	return &broker.WeatherReport{
		Timeslot:      timeslot,
		Temperature:   w.spec.MeanTemperature + w.spec.TemperatureSwing*math.Cos(phase) + w.rng.NormFloat64(),
		WindSpeed:     math.Max(0, w.spec.MeanWindSpeed+1.5*w.rng.NormFloat64()),
		WindDirection: 360 * w.rng.Float64(),
		Cloudiness:    w.rng.Float64(),
	}
}
