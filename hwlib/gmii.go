// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

// GMIILoopback copies its GMII receive side to its transmit side with a fixed
// latency in clock cycles.
//
//	Inputs: Clk, RxD, RxDV, RxEr
//	Outputs: TxD, TxEn, TxEr
//
type GMIILoopback struct {
	Clk  bool
	RxD  uint8
	RxDV bool
	RxEr bool
	TxD  uint8
	TxEn bool
	TxEr bool

	pipe []gmiiBeat
	edge Edge
}

type gmiiBeat struct {
	d      uint8
	dv, er bool
}

// NewGMIILoopback returns a loopback with the given latency. A latency below 1
// is set to 1.
//
func NewGMIILoopback(latency int) *GMIILoopback {
	if latency < 1 {
		latency = 1
	}
	return &GMIILoopback{pipe: make([]gmiiBeat, latency)}
}

// Eval implements axisim.Device.
//
func (l *GMIILoopback) Eval() {
	if !l.edge.Rising(l.Clk) {
		return
	}
	n := len(l.pipe) - 1
	out := l.pipe[n]
	copy(l.pipe[1:], l.pipe[:n])
	l.pipe[0] = gmiiBeat{l.RxD, l.RxDV, l.RxEr}
	l.TxD, l.TxEn, l.TxEr = out.d, out.dv, out.er
}
