// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides behavioral models of simple stream devices that can
// be used as devices under test with axisim.
//
// Every model exposes its signals as exported fields, samples its inputs on
// the rising edge of Clk and implements axisim.Device. Combinational outputs
// (tready) are updated on every call to Eval.
//
// Copyright 2018 Denis Bernard <db047h@gmail.com>
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package hwlib

import "github.com/db47h/axisim/axis"

// Edge detects rising edges of a clock signal.
//
type Edge struct {
	prev bool
}

// Rising returns true if clk went from low to high since the previous call.
// It must be called exactly once per evaluation.
//
func (e *Edge) Rising(clk bool) bool {
	r := clk && !e.prev
	e.prev = clk
	return r
}

type beat[D, K axis.Word] struct {
	last bool
	keep K
	data D
}

func load[D, K axis.Word](w *axis.Wires[D, K]) beat[D, K] {
	return beat[D, K]{last: w.TLast, keep: w.TKeep, data: w.TData}
}

func (b beat[D, K]) drive(w *axis.Wires[D, K]) {
	w.TValid = true
	w.TLast = b.last
	w.TKeep = b.keep
	w.TData = b.data
}
