// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axisim

import "math"

// Event is a clock phase transition.
//
type Event int

// Clock events.
//
const (
	EventNone Event = iota
	EventRising
	EventFalling
)

// String implements fmt.Stringer.
//
func (e Event) String() string {
	switch e {
	case EventNone:
		return "NONE"
	case EventRising:
		return "RISING"
	case EventFalling:
		return "FALLING"
	}
	return "UNKNOWN"
}

// A Timer returns the current simulation time, in steps.
//
type Timer interface {
	Time() uint64
}

// ClockGen derives a clock signal from a shared step counter.
//
// The clock falls when time%period == 0 and rises half way through the period.
//
type ClockGen struct {
	t   Timer
	tpc uint64 // steps per clock period
}

// NewClockGen returns a clock of frequency freq (in Hz) where every step of t
// lasts resolution seconds.
//
// At least two steps per clock period are required.
//
func NewClockGen(t Timer, resolution, freq float64) (*ClockGen, error) {
	if resolution <= 0 || freq <= 0 {
		return nil, Errorf(KindConfig, "invalid clock resolution %g or frequency %g", resolution, freq)
	}
	tpc := math.Round((1.0 / freq) * (1.0 / resolution))
	if tpc < 2 {
		return nil, Errorf(KindConfig, "clock at %g Hz needs at least 2 steps per period, got %g", freq, tpc)
	}
	return &ClockGen{t: t, tpc: uint64(tpc)}, nil
}

// Period returns the number of steps in one clock period.
//
func (c *ClockGen) Period() uint64 { return c.tpc }

// Value returns the current level of the clock signal.
//
func (c *ClockGen) Value() bool {
	return c.t.Time()%c.tpc >= c.tpc/2
}

// Event returns the clock transition occurring at the current step, if any.
//
func (c *ClockGen) Event() Event {
	switch c.t.Time() % c.tpc {
	case 0:
		return EventFalling
	case c.tpc / 2:
		return EventRising
	}
	return EventNone
}

// Rising is shorthand for c.Event() == EventRising.
//
func (c *ClockGen) Rising() bool {
	return c.Event() == EventRising
}
