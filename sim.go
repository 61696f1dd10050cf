// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axisim

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// A Device is the device under test. Eval is called once per simulation step,
// after all peripheral inputs have been latched and before any peripheral is
// evaluated. Devices detect clock edges themselves from their clock input.
//
type Device interface {
	Eval()
}

// DeviceFunc adapts a function to the Device interface.
//
type DeviceFunc func()

// Eval calls f.
//
func (f DeviceFunc) Eval() { f() }

// A Finisher is a Device that can signal the end of the simulation.
//
type Finisher interface {
	Finished() bool
}

// A Peripheral is a component of the test harness connected to the device
// under test. Latch saves the peripheral's inputs; Eval updates its state and
// outputs. A non-nil error from Eval aborts the simulation.
//
// Peripherals usually embed a Latches set to implement Latch.
//
type Peripheral interface {
	Latcher
	Eval() error
}

type clockBind struct {
	clk *ClockGen
	pin *bool
}

// Sim is a simulation run. It owns the step counter and evaluates, in order,
// clocks, peripheral latches, the device under test and the peripherals.
//
type Sim struct {
	time   uint64
	clocks []clockBind
	ps     []Peripheral
	dut    Device
	log    zerolog.Logger
	m      *Metrics
}

// Option configures a Sim.
//
type Option func(*Sim)

// WithLogger sets the logger used by the simulation and its peripherals.
//
func WithLogger(l zerolog.Logger) Option {
	return func(s *Sim) { s.log = l }
}

// WithMetrics sets the metrics updated by the simulation and its peripherals.
//
func WithMetrics(m *Metrics) Option {
	return func(s *Sim) { s.m = m }
}

// NewSim returns a new simulation for the given device. dut may be nil, in
// which case peripherals are wired directly to each other.
//
func NewSim(dut Device, opts ...Option) *Sim {
	s := &Sim{dut: dut, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Time returns the value of the step counter.
//
func (s *Sim) Time() uint64 { return s.time }

// Logger returns the simulation logger.
//
func (s *Sim) Logger() zerolog.Logger { return s.log }

// Metrics returns the simulation metrics. The returned value may be nil.
//
func (s *Sim) Metrics() *Metrics { return s.m }

// AddClock drives pin from clk at the beginning of every step.
//
func (s *Sim) AddClock(clk *ClockGen, pin *bool) {
	s.clocks = append(s.clocks, clockBind{clk, pin})
	*pin = clk.Value()
}

// AddPeripheral adds p to the list of peripherals evaluated each step.
//
func (s *Sim) AddPeripheral(p Peripheral) {
	s.ps = append(s.ps, p)
}

// Step advances the simulation by one step.
//
// All peripheral inputs are latched before the device and the peripherals are
// evaluated, so that no peripheral sees a value written by another one during
// the same step.
//
func (s *Sim) Step() error {
	s.time++
	s.m.step()
	for _, c := range s.clocks {
		*c.pin = c.clk.Value()
	}
	for _, p := range s.ps {
		p.Latch()
	}
	if s.dut != nil {
		s.dut.Eval()
	}
	for _, p := range s.ps {
		if err := p.Eval(); err != nil {
			s.m.fail(err)
			s.log.Error().Err(err).Uint64("step", s.time).Msg("simulation aborted")
			return errors.Wrapf(err, "step %d", s.time)
		}
	}
	return nil
}

// Finished reports whether the device under test signalled the end of the
// simulation.
//
func (s *Sim) Finished() bool {
	if f, ok := s.dut.(Finisher); ok {
		return f.Finished()
	}
	return false
}

// Run steps the simulation until done returns true or the device finishes.
// done may be nil. If the condition is not met within maxSteps steps, Run
// returns a KindTimeout error.
//
func (s *Sim) Run(done func() bool, maxSteps uint64) error {
	for n := uint64(0); ; n++ {
		if done != nil && done() || s.Finished() {
			return nil
		}
		if n == maxSteps {
			return Errorf(KindTimeout, "condition not met after %d steps", maxSteps)
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
}
