// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import "github.com/db47h/axisim/axis"

// FIFO is a beat FIFO of fixed depth. It does not look at packet boundaries.
//
//	Inputs: Clk, SResetN, In.TValid, In.TLast, In.TKeep, In.TData, Out.TReady
//	Outputs: In.TReady, Out.TValid, Out.TLast, Out.TKeep, Out.TData
//
type FIFO[D, K axis.Word] struct {
	Clk     bool
	SResetN bool
	In      axis.Wires[D, K]
	Out     axis.Wires[D, K]

	depth int
	q     []beat[D, K]
	edge  Edge
}

// NewFIFO returns a FIFO holding up to depth beats. depth must be at least 1.
//
func NewFIFO[D, K axis.Word](depth int) *FIFO[D, K] {
	if depth < 1 {
		panic("FIFO depth must be at least 1")
	}
	return &FIFO[D, K]{depth: depth, q: make([]beat[D, K], 0, depth)}
}

// Len returns the number of beats stored in the FIFO.
//
func (f *FIFO[D, K]) Len() int { return len(f.q) }

// Eval implements axisim.Device.
//
func (f *FIFO[D, K]) Eval() {
	if f.edge.Rising(f.Clk) {
		if !f.SResetN {
			f.q = f.q[:0]
		} else {
			push := f.In.TReady && f.In.TValid
			if f.Out.TValid && f.Out.TReady {
				copy(f.q, f.q[1:])
				f.q = f.q[:len(f.q)-1]
			}
			if push {
				f.q = append(f.q, load(&f.In))
			}
		}
		if len(f.q) > 0 {
			f.q[0].drive(&f.Out)
		} else {
			f.Out.TValid = false
		}
	}
	f.In.TReady = f.SResetN && len(f.q) < f.depth
}
