// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axisim

// ResetCycles is the number of rising clock edges a ResetGen holds its pin.
//
const ResetCycles = 5

// ResetGen generates a reset pulse: the reset pin is held at its initial level
// for ResetCycles rising edges, then toggled.
//
type ResetGen struct {
	Latches
	clk   *ClockGen
	pin   Output[bool]
	level bool
	ctr   int
}

// NewResetGen drives pin to active for ResetCycles clock cycles and adds the
// generator to s. Use active = false for an active low reset (resetn).
//
func NewResetGen(s *Sim, clk *ClockGen, pin *bool, active bool) *ResetGen {
	r := &ResetGen{clk: clk, pin: NewOutput(pin), level: active}
	r.pin.Set(active)
	s.AddPeripheral(r)
	return r
}

// Done reports whether the reset pulse is over.
//
func (r *ResetGen) Done() bool { return r.ctr >= ResetCycles }

// Eval implements Peripheral.
//
func (r *ResetGen) Eval() error {
	if r.clk.Rising() && r.ctr < ResetCycles {
		r.ctr++
		if r.ctr == ResetCycles {
			r.level = !r.level
			r.pin.Set(r.level)
		}
	}
	return nil
}
