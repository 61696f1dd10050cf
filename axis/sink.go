// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axis

import (
	"github.com/db47h/axisim"
	"github.com/rs/zerolog"
)

// SinkConfig configures a Sink.
//
type SinkConfig struct {
	// Name used in logs and metrics.
	Name string
	// Packed enables strict tkeep checking: tkeep must be a contiguous low
	// order run within the data width, and all ones on non-final beats.
	Packed bool
	// Width of the data word in bytes. Defaults to the size of the tdata
	// type.
	Width int
}

// Sink receives an AXI4-Stream and reassembles packets.
//
// Sink always asserts tready. Partial packets are dropped when the reset
// signal goes low.
//
type Sink[D, K, U Word] struct {
	axisim.Latches
	cfg   SinkConfig
	clk   *axisim.ClockGen
	log   zerolog.Logger
	m     *axisim.Metrics
	width int

	resetn axisim.Input[bool]
	ready  axisim.Output[bool]
	valid  axisim.Input[bool]
	last   axisim.Input[bool]
	keep   axisim.Input[K]
	data   axisim.Input[D]
	users  []axisim.Input[U]

	out     axisim.PacketSink[byte]
	userOut []axisim.PacketSink[U]

	cur      []byte
	curUsers [][]U
	packets  int
	beats    int
}

// NewSink creates a new Sink clocked by clk and adds it to s. resetn is the
// active low stream reset; if nil the sink is never reset.
//
// Complete packets are sent to out, and the per beat values of sideband
// channel i to userOut[i]. There must be exactly one sideband sink per tuser
// signal.
//
func NewSink[D, K, U Word](s *axisim.Sim, clk *axisim.ClockGen, resetn *bool, sig Signals[D, K, U],
	out axisim.PacketSink[byte], userOut []axisim.PacketSink[U], cfg SinkConfig) (*Sink[D, K, U], error) {
	if err := sig.check(); err != nil {
		return nil, err
	}
	if len(userOut) != len(sig.TUser) {
		return nil, axisim.Errorf(axisim.KindConfig, "%d tuser signals but %d sideband sinks", len(sig.TUser), len(userOut))
	}
	for i, u := range userOut {
		if u == nil {
			return nil, axisim.Errorf(axisim.KindConfig, "sideband sink %d is nil", i)
		}
	}
	if out == nil {
		return nil, axisim.Errorf(axisim.KindConfig, "missing packet sink")
	}
	width, err := checkWidth(cfg.Width, bitsOf[D](), bitsOf[K](), sig.TKeep != nil)
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = "axis_sink"
	}

	k := &Sink[D, K, U]{
		cfg:      cfg,
		clk:      clk,
		log:      s.Logger().With().Str("peripheral", cfg.Name).Logger(),
		m:        s.Metrics(),
		width:    width,
		ready:    axisim.NewOutput(sig.TReady),
		out:      out,
		userOut:  userOut,
		curUsers: make([][]U, len(sig.TUser)),
	}
	k.resetn = axisim.NewInput(&k.Latches, resetn, true)
	k.valid = axisim.NewInput(&k.Latches, sig.TValid, false)
	// without tlast, every beat is a packet
	k.last = axisim.NewInput(&k.Latches, sig.TLast, true)
	k.keep = axisim.NewInput(&k.Latches, sig.TKeep, K(Mask(width)))
	k.data = axisim.NewInput(&k.Latches, sig.TData, 0)
	for _, u := range sig.TUser {
		k.users = append(k.users, axisim.NewInput(&k.Latches, u, 0))
	}

	k.ready.Set(true)
	s.AddPeripheral(k)
	return k, nil
}

// Packets returns the number of packets received.
//
func (k *Sink[D, K, U]) Packets() int { return k.packets }

// Beats returns the number of beats received.
//
func (k *Sink[D, K, U]) Beats() int { return k.beats }

// Pending returns the number of bytes received for the packet in progress.
//
func (k *Sink[D, K, U]) Pending() int { return len(k.cur) }

func (k *Sink[D, K, U]) reset() {
	if len(k.cur) > 0 {
		k.log.Debug().Int("bytes", len(k.cur)).Msg("reset: dropping partial packet")
	}
	k.cur = nil
	for i := range k.curUsers {
		k.curUsers[i] = nil
	}
}

// Eval implements axisim.Peripheral.
//
func (k *Sink[D, K, U]) Eval() error {
	k.ready.Set(true)
	if !k.clk.Rising() {
		return nil
	}
	if !k.resetn.Value() {
		k.reset()
		return nil
	}
	if !k.valid.Value() {
		return nil
	}

	keep := uint64(k.keep.Value())
	last := k.last.Value()
	if k.cfg.Packed {
		if err := checkKeep(keep, k.width, last); err != nil {
			return err
		}
	}
	if k.data.Present() {
		d := uint64(k.data.Value())
		for i := 0; i < k.width; i++ {
			if keep&(1<<uint(i)) != 0 {
				k.cur = append(k.cur, byte(d>>(8*uint(i))))
			}
		}
	}
	for i, u := range k.users {
		k.curUsers[i] = append(k.curUsers[i], u.Value())
	}
	k.beats++
	k.m.Beat(k.cfg.Name)

	if last {
		k.log.Debug().Int("bytes", len(k.cur)).Int("packet", k.packets).Msg("packet received")
		k.out.Send(k.cur)
		for i, o := range k.userOut {
			o.Send(k.curUsers[i])
			k.curUsers[i] = nil
		}
		k.cur = nil
		k.packets++
		k.m.Packet(k.cfg.Name)
	}
	return nil
}
