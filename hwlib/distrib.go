// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import "github.com/db47h/axisim/axis"

// RoundRobin distributes whole packets from its input to its outputs in turn:
// packet i goes to output i % len(Out).
//
//	Inputs: Clk, SResetN, In.TValid, In.TLast, In.TKeep, In.TData, Out[i].TReady
//	Outputs: In.TReady, Out[i].TValid, Out[i].TLast, Out[i].TKeep, Out[i].TData
//
type RoundRobin[D, K axis.Word] struct {
	Clk     bool
	SResetN bool
	In      axis.Wires[D, K]
	Out     []axis.Wires[D, K]

	sel  int
	edge Edge
}

// NewRoundRobin returns a distributor with n outputs.
//
func NewRoundRobin[D, K axis.Word](n int) *RoundRobin[D, K] {
	if n < 1 {
		panic("RoundRobin needs at least one output")
	}
	return &RoundRobin[D, K]{Out: make([]axis.Wires[D, K], n)}
}

// Eval implements axisim.Device.
//
func (r *RoundRobin[D, K]) Eval() {
	if r.edge.Rising(r.Clk) {
		if !r.SResetN {
			for i := range r.Out {
				r.Out[i].TValid = false
			}
			r.sel = 0
		} else {
			accept := r.In.TReady && r.In.TValid
			for i := range r.Out {
				if r.Out[i].TValid && r.Out[i].TReady {
					r.Out[i].TValid = false
				}
			}
			if accept {
				load(&r.In).drive(&r.Out[r.sel])
				if r.In.TLast {
					r.sel = (r.sel + 1) % len(r.Out)
				}
			}
		}
	}
	o := &r.Out[r.sel]
	r.In.TReady = r.SResetN && (!o.TValid || o.TReady)
}

// Broadcaster copies every beat of its input to all of its outputs. A beat is
// accepted only when every output can take it.
//
type Broadcaster[D, K axis.Word] struct {
	Clk     bool
	SResetN bool
	In      axis.Wires[D, K]
	Out     []axis.Wires[D, K]

	edge Edge
}

// NewBroadcaster returns a broadcaster with n outputs.
//
func NewBroadcaster[D, K axis.Word](n int) *Broadcaster[D, K] {
	if n < 1 {
		panic("Broadcaster needs at least one output")
	}
	return &Broadcaster[D, K]{Out: make([]axis.Wires[D, K], n)}
}

// Eval implements axisim.Device.
//
func (b *Broadcaster[D, K]) Eval() {
	if b.edge.Rising(b.Clk) {
		accept := b.SResetN && b.In.TReady && b.In.TValid
		for i := range b.Out {
			o := &b.Out[i]
			if !b.SResetN || o.TValid && o.TReady {
				o.TValid = false
			}
		}
		if accept {
			in := load(&b.In)
			for i := range b.Out {
				in.drive(&b.Out[i])
			}
		}
	}
	ready := b.SResetN
	for i := range b.Out {
		o := &b.Out[i]
		ready = ready && (!o.TValid || o.TReady)
	}
	b.In.TReady = ready
}
