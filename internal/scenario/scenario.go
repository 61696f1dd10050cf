// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package scenario builds a simulation from a scenario configuration and runs
// it to completion.
package scenario

import (
	"context"
	"encoding/hex"
	"strconv"

	"github.com/db47h/axisim"
	"github.com/db47h/axisim/axis"
	"github.com/db47h/axisim/eth"
	"github.com/db47h/axisim/hwlib"
	"github.com/db47h/axisim/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Packet is a byte string that marshals to hex.
//
type Packet []byte

// MarshalText implements encoding.TextMarshaler.
//
func (p Packet) MarshalText() ([]byte, error) {
	b := make([]byte, hex.EncodedLen(len(p)))
	hex.Encode(b, p)
	return b, nil
}

// Result is the outcome of a scenario run.
//
type Result struct {
	Device     string     `json:"device"`
	Steps      uint64     `json:"steps"`
	Sent       int        `json:"sent"`
	Outputs    [][]Packet `json:"outputs"`
	LineErrors int        `json:"line_errors,omitempty"`
}

// Received returns the number of packets received on all outputs.
//
func (r *Result) Received() int {
	n := 0
	for _, o := range r.Outputs {
		n += len(o)
	}
	return n
}

type bench struct {
	s       *axisim.Sim
	clk     *axisim.ClockGen
	outs    []*axisim.SliceSink[byte]
	expect  int
	lineErr func() int
}

// Run runs sc until every expected packet has been received, the step limit
// is reached or ctx is done. m may be nil.
//
func Run(ctx context.Context, sc config.Scenario, log zerolog.Logger, m *axisim.Metrics) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	pkts := sc.Payloads()
	log = log.With().Str("device", sc.Device).Logger()

	var (
		b   *bench
		err error
	)
	switch sc.Device {
	case config.DeviceRegister:
		r := new(hwlib.Register[uint64, uint8])
		b, err = streamBench(sc, log, m, r, &r.Clk, &r.SResetN, &r.In, []*axis.Wires[uint64, uint8]{&r.Out}, pkts)
	case config.DeviceFIFO:
		f := hwlib.NewFIFO[uint64, uint8](sc.Depth)
		b, err = streamBench(sc, log, m, f, &f.Clk, &f.SResetN, &f.In, []*axis.Wires[uint64, uint8]{&f.Out}, pkts)
	case config.DeviceRoundRobin:
		r := hwlib.NewRoundRobin[uint64, uint8](sc.Outputs)
		b, err = streamBench(sc, log, m, r, &r.Clk, &r.SResetN, &r.In, wires(r.Out), pkts)
	case config.DeviceBroadcaster:
		bc := hwlib.NewBroadcaster[uint64, uint8](sc.Outputs)
		b, err = streamBench(sc, log, m, bc, &bc.Clk, &bc.SResetN, &bc.In, wires(bc.Out), pkts)
		if b != nil {
			b.expect *= sc.Outputs
		}
	case config.DeviceGMIILoopback:
		b, err = gmiiBench(sc, log, m, pkts)
	default:
		err = axisim.Errorf(axisim.KindConfig, "unknown device %q", sc.Device)
	}
	if err != nil {
		return nil, err
	}

	log.Info().Int("packets", len(pkts)).Msg("starting simulation")
	res := &Result{Device: sc.Device, Sent: len(pkts)}
	err = b.s.Run(func() bool {
		if ctx.Err() != nil {
			return true
		}
		n := 0
		for _, o := range b.outs {
			n += o.Len()
		}
		return n >= b.expect
	}, sc.MaxSteps)
	if err == nil {
		err = ctx.Err()
	}
	res.Steps = b.s.Time()
	for _, o := range b.outs {
		var ps []Packet
		for _, p := range o.Packets() {
			ps = append(ps, Packet(p))
		}
		res.Outputs = append(res.Outputs, ps)
	}
	if b.lineErr != nil {
		res.LineErrors = b.lineErr()
	}
	if err != nil {
		return res, errors.Wrapf(err, "scenario %s", sc.Device)
	}
	log.Info().Uint64("steps", res.Steps).Int("received", res.Received()).Msg("simulation complete")
	return res, nil
}

func wires[D, K axis.Word](ws []axis.Wires[D, K]) []*axis.Wires[D, K] {
	ps := make([]*axis.Wires[D, K], len(ws))
	for i := range ws {
		ps[i] = &ws[i]
	}
	return ps
}

func newSim(sc config.Scenario, log zerolog.Logger, m *axisim.Metrics, dev axisim.Device, clkPin *bool) (*axisim.Sim, *axisim.ClockGen, error) {
	s := axisim.NewSim(dev, axisim.WithLogger(log), axisim.WithMetrics(m))
	clk, err := axisim.NewClockGen(s, sc.Clock.Resolution, sc.Clock.Frequency)
	if err != nil {
		return nil, nil, err
	}
	s.AddClock(clk, clkPin)
	return s, clk, nil
}

// streamBench wires an AXI4-Stream source to in and one sink per output.
//
func streamBench[D, K axis.Word](sc config.Scenario, log zerolog.Logger, m *axisim.Metrics, dev axisim.Device,
	clkPin, resetn *bool, in *axis.Wires[D, K], outs []*axis.Wires[D, K], pkts [][]byte) (*bench, error) {
	s, clk, err := newSim(sc, log, m, dev, clkPin)
	if err != nil {
		return nil, err
	}
	b := &bench{s: s, clk: clk, expect: len(pkts)}
	axisim.NewResetGen(s, clk, resetn, false)
	_, err = axis.NewSource(s, clk, resetn, in.Signals(), axisim.NewSliceSource(pkts...), nil, axis.SourceConfig{
		Name:   "source",
		Packed: sc.Source.Packed,
		Width:  sc.Source.Width,
		Seed:   sc.Seed,
	})
	if err != nil {
		return nil, err
	}
	for i, o := range outs {
		sink := new(axisim.SliceSink[byte])
		_, err = axis.NewSink(s, clk, resetn, o.Signals(), sink, nil, axis.SinkConfig{
			Name:   "sink" + strconv.Itoa(i),
			Packed: sc.Sink.Packed,
			Width:  sc.Sink.Width,
		})
		if err != nil {
			return nil, err
		}
		b.outs = append(b.outs, sink)
	}
	return b, nil
}

// gmiiBench sends frames through a GMII loopback device.
//
func gmiiBench(sc config.Scenario, log zerolog.Logger, m *axisim.Metrics, pkts [][]byte) (*bench, error) {
	lb := hwlib.NewGMIILoopback(sc.Latency)
	s, clk, err := newSim(sc, log, m, lb, &lb.Clk)
	if err != nil {
		return nil, err
	}
	if _, err = eth.NewGMIISource(s, clk, &lb.RxD, &lb.RxDV, &lb.RxEr, axisim.NewSliceSource(pkts...), "phy_rx"); err != nil {
		return nil, err
	}
	out := new(axisim.SliceSink[byte])
	sink, err := eth.NewGMIISink(s, clk, &lb.TxD, &lb.TxEn, &lb.TxEr, out, eth.GMIISinkConfig{Name: "phy_tx", KeepFCS: sc.KeepFCS})
	if err != nil {
		return nil, err
	}
	return &bench{s: s, clk: clk, outs: []*axisim.SliceSink[byte]{out}, expect: len(pkts), lineErr: sink.LineErrors}, nil
}
