package sim

import (
	"time"

	"github.com/tac-sim/default-broker/broker"
)

// Clock is the host's timeslot registry. Timeslot n starts at
// base + n*duration; the enabled window is the next TimeslotsOpen timeslots.
type Clock struct {
	current  int
	open     int
	base     time.Time
	duration time.Duration
}

// NewClock creates a clock positioned at timeslot start.
func NewClock(c broker.Competition, start int) *Clock {
	return &Clock{
		current:  start,
		open:     c.TimeslotsOpen,
		base:     c.BaseTime,
		duration: c.TimeslotDuration(),
	}
}

// CurrentTimeslot implements broker.Clock.
func (c *Clock) CurrentTimeslot() int {
	return c.current
}

// EnabledTimeslots implements broker.Clock.
func (c *Clock) EnabledTimeslots() []int {
	out := make([]int, c.open)
	for i := range out {
		out[i] = c.current + 1 + i
	}
	return out
}

// TimeslotStart implements broker.Clock.
func (c *Clock) TimeslotStart(serial int) time.Time {
	return c.base.Add(time.Duration(serial) * c.duration)
}

// Now returns the start instant of the current timeslot.
func (c *Clock) Now() time.Time {
	return c.TimeslotStart(c.current)
}

// Set moves the clock to timeslot serial.
func (c *Clock) Set(serial int) {
	c.current = serial
}

// Advance moves to the next timeslot.
func (c *Clock) Advance() {
	c.current++
}
