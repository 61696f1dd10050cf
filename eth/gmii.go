// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eth

import (
	"github.com/db47h/axisim"
	"github.com/rs/zerolog"
)

// GMIISource transmits frames to the receive side of a device's GMII
// interface, one byte per rising clock edge, with an inter packet gap of
// InterPacketGap cycles after each frame.
//
type GMIISource struct {
	axisim.Latches
	name string
	clk  *axisim.ClockGen
	log  zerolog.Logger
	m    *axisim.Metrics

	rxd  axisim.Output[uint8]
	rxdv axisim.Output[bool]
	rxer axisim.Output[bool]

	in     axisim.PacketSource[byte]
	cur    []byte
	pos    int
	ipg    int
	frames int
}

// NewGMIISource creates a GMII source and adds it to s. Payloads pulled from in
// are framed with Frame before transmission.
//
func NewGMIISource(s *axisim.Sim, clk *axisim.ClockGen, rxd *uint8, rxdv, rxer *bool, in axisim.PacketSource[byte], name string) (*GMIISource, error) {
	if rxd == nil || rxdv == nil {
		return nil, axisim.Errorf(axisim.KindConfig, "rxd and rxdv are mandatory")
	}
	if in == nil {
		return nil, axisim.Errorf(axisim.KindConfig, "missing packet source")
	}
	if name == "" {
		name = "gmii_source"
	}
	g := &GMIISource{
		name: name,
		clk:  clk,
		log:  s.Logger().With().Str("peripheral", name).Logger(),
		m:    s.Metrics(),
		rxd:  axisim.NewOutput(rxd),
		rxdv: axisim.NewOutput(rxdv),
		rxer: axisim.NewOutput(rxer),
		in:   in,
	}
	g.rxd.Set(0)
	g.rxdv.Set(false)
	g.rxer.Set(false)
	s.AddPeripheral(g)
	return g, nil
}

// Busy reports whether a frame is being transmitted.
//
func (g *GMIISource) Busy() bool { return g.pos < len(g.cur) }

// Frames returns the number of frames transmitted.
//
func (g *GMIISource) Frames() int { return g.frames }

// Eval implements axisim.Peripheral.
//
func (g *GMIISource) Eval() error {
	if !g.clk.Rising() {
		return nil
	}
	g.rxdv.Set(false)
	g.rxer.Set(false)

	if g.pos == len(g.cur) {
		if p, ok := g.in.Receive(); ok {
			g.cur, g.pos = Frame(p), 0
		}
	}
	if g.ipg > 0 {
		g.ipg--
		return nil
	}
	if g.pos < len(g.cur) {
		g.rxdv.Set(true)
		g.rxd.Set(g.cur[g.pos])
		g.pos++
		g.m.Beat(g.name)
		if g.pos == len(g.cur) {
			g.ipg = InterPacketGap
			g.frames++
			g.m.Packet(g.name)
			g.log.Debug().Int("bytes", len(g.cur)).Msg("frame sent")
		}
	}
	return nil
}

// GMIISink receives frames from the transmit side of a device's GMII
// interface, validates them with Deframe and forwards their payload.
//
// A frame during which tx_er is asserted is dropped without being forwarded.
// Any other framing violation, including a frame starting less than
// InterPacketGap cycles after the previous one, is a fatal error.
//
type GMIISink struct {
	axisim.Latches
	name    string
	keepFCS bool
	clk     *axisim.ClockGen
	log     zerolog.Logger
	m       *axisim.Metrics

	txd  axisim.Input[uint8]
	txen axisim.Input[bool]
	txer axisim.Input[bool]

	out        axisim.PacketSink[byte]
	cur        []byte
	discard    bool
	ipg        int
	frames     int
	lineErrors int
}

// GMIISinkConfig configures a GMIISink.
//
type GMIISinkConfig struct {
	Name string
	// KeepFCS forwards the 4 FCS bytes along with the payload.
	KeepFCS bool
}

// NewGMIISink creates a GMII sink and adds it to s. txer may be nil.
//
func NewGMIISink(s *axisim.Sim, clk *axisim.ClockGen, txd *uint8, txen, txer *bool, out axisim.PacketSink[byte], cfg GMIISinkConfig) (*GMIISink, error) {
	if txd == nil || txen == nil {
		return nil, axisim.Errorf(axisim.KindConfig, "txd and txen are mandatory")
	}
	if out == nil {
		return nil, axisim.Errorf(axisim.KindConfig, "missing packet sink")
	}
	if cfg.Name == "" {
		cfg.Name = "gmii_sink"
	}
	g := &GMIISink{
		name:    cfg.Name,
		keepFCS: cfg.KeepFCS,
		clk:     clk,
		log:     s.Logger().With().Str("peripheral", cfg.Name).Logger(),
		m:       s.Metrics(),
		out:     out,
		cur:     make([]byte, 0, 1538),
	}
	g.txd = axisim.NewInput(&g.Latches, txd, 0)
	g.txen = axisim.NewInput(&g.Latches, txen, false)
	g.txer = axisim.NewInput(&g.Latches, txer, false)
	s.AddPeripheral(g)
	return g, nil
}

// Frames returns the number of valid frames received.
//
func (g *GMIISink) Frames() int { return g.frames }

// LineErrors returns the number of frames dropped because of tx_er.
//
func (g *GMIISink) LineErrors() int { return g.lineErrors }

// Eval implements axisim.Peripheral.
//
func (g *GMIISink) Eval() error {
	if !g.clk.Rising() {
		return nil
	}
	if g.ipg > 0 {
		g.ipg--
	}

	txen := g.txen.Value()
	switch {
	case g.txer.Value():
		if (txen || len(g.cur) > 0) && !g.discard {
			g.lineErrors++
			g.m.LineError(g.name)
			g.log.Warn().Int("bytes", len(g.cur)).Msg("line error, dropping frame")
			g.discard = true
		}
		g.cur = g.cur[:0]
	case txen:
		if g.discard {
			return nil
		}
		if len(g.cur) == 0 && g.ipg > 0 {
			return axisim.Errorf(axisim.KindGap, "violation of inter packet gap: %d cycles remain", g.ipg)
		}
		g.cur = append(g.cur, g.txd.Value())
		g.m.Beat(g.name)
	case g.discard:
		// a dropped frame still opens a gap
		g.discard = false
		g.ipg = InterPacketGap
	case len(g.cur) > 0:
		// first idle cycle after a frame
		p, err := Deframe(g.cur, g.keepFCS)
		if err != nil {
			return err
		}
		g.cur = g.cur[:0]
		g.ipg = InterPacketGap
		g.frames++
		g.m.Packet(g.name)
		g.log.Debug().Int("bytes", len(p)).Msg("frame received")
		g.out.Send(p)
	}
	return nil
}
