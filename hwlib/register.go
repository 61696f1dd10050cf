// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import "github.com/db47h/axisim/axis"

// Register is a single stage stream register: a pass-through device with one
// cycle of latency.
//
//	Inputs: Clk, SResetN, In.TValid, In.TLast, In.TKeep, In.TData, Out.TReady
//	Outputs: In.TReady, Out.TValid, Out.TLast, Out.TKeep, Out.TData
//	Function: Out(t) = In(t-1) when In.TReady(t-1) && In.TValid(t-1)
//
type Register[D, K axis.Word] struct {
	Clk     bool
	SResetN bool
	In      axis.Wires[D, K]
	Out     axis.Wires[D, K]

	edge Edge
}

// Eval implements axisim.Device.
//
func (r *Register[D, K]) Eval() {
	if r.edge.Rising(r.Clk) {
		switch {
		case !r.SResetN:
			r.Out.TValid = false
		case r.In.TReady:
			if r.In.TValid {
				load(&r.In).drive(&r.Out)
			} else {
				r.Out.TValid = false
			}
		}
	}
	r.In.TReady = r.SResetN && (!r.Out.TValid || r.Out.TReady)
}
