// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axis

import (
	"math/rand"

	"github.com/db47h/axisim"
	"github.com/rs/zerolog"
)

// SourceConfig configures a Source.
//
type SourceConfig struct {
	// Name used in logs and metrics.
	Name string
	// Packed makes the source fill every byte lane of non-final beats. When
	// false, byte lanes are randomly skipped to exercise partial word handling
	// in the device under test. Unpacked mode requires a tkeep signal and
	// cannot be used with sideband channels.
	Packed bool
	// Width of the data word in bytes. Defaults to the size of the tdata
	// type.
	Width int
	// Seed for the lane selection in unpacked mode.
	Seed int64
}

// Source drives an AXI4-Stream from packets pulled from a PacketSource.
//
// When sideband channels are configured, one sideband packet is pulled from
// each sideband source for every data packet. Beat i of the data packet
// carries entry i of each sideband packet; a sideband packet shorter than the
// data packet holds its last entry.
//
type Source[D, K, U Word] struct {
	axisim.Latches
	cfg   SourceConfig
	clk   *axisim.ClockGen
	log   zerolog.Logger
	m     *axisim.Metrics
	width int
	rng   *rand.Rand

	resetn axisim.Input[bool]
	ready  axisim.Input[bool]
	valid  axisim.Output[bool]
	last   axisim.Output[bool]
	keep   axisim.Output[K]
	data   axisim.Output[D]
	users  []axisim.Output[U]

	in     axisim.PacketSource[byte]
	userIn []axisim.PacketSource[U]

	pkt       []byte
	pos       int
	upkts     [][]U
	beat      int
	busy      bool // a packet is being emitted
	offering  bool // tvalid is asserted
	offerLast bool
	packets   int
	beats     int
}

// NewSource creates a new Source clocked by clk and adds it to s. resetn is
// the active low stream reset; if nil the source is never reset.
//
// userIn must hold exactly one sideband source per tuser signal.
//
func NewSource[D, K, U Word](s *axisim.Sim, clk *axisim.ClockGen, resetn *bool, sig Signals[D, K, U],
	in axisim.PacketSource[byte], userIn []axisim.PacketSource[U], cfg SourceConfig) (*Source[D, K, U], error) {
	if err := sig.check(); err != nil {
		return nil, err
	}
	if len(userIn) != len(sig.TUser) {
		return nil, axisim.Errorf(axisim.KindConfig, "%d tuser signals but %d sideband sources", len(sig.TUser), len(userIn))
	}
	for i, u := range userIn {
		if u == nil {
			return nil, axisim.Errorf(axisim.KindConfig, "sideband source %d is nil", i)
		}
	}
	if !cfg.Packed && len(sig.TUser) > 0 {
		return nil, axisim.Errorf(axisim.KindConfig, "unpacked mode is not supported with sideband channels")
	}
	if !cfg.Packed && sig.TKeep == nil {
		return nil, axisim.Errorf(axisim.KindConfig, "unpacked mode requires a tkeep signal")
	}
	if in == nil {
		return nil, axisim.Errorf(axisim.KindConfig, "missing packet source")
	}
	width, err := checkWidth(cfg.Width, bitsOf[D](), bitsOf[K](), sig.TKeep != nil)
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = "axis_source"
	}

	o := &Source[D, K, U]{
		cfg:    cfg,
		clk:    clk,
		log:    s.Logger().With().Str("peripheral", cfg.Name).Logger(),
		m:      s.Metrics(),
		width:  width,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		valid:  axisim.NewOutput(sig.TValid),
		last:   axisim.NewOutput(sig.TLast),
		keep:   axisim.NewOutput(sig.TKeep),
		data:   axisim.NewOutput(sig.TData),
		in:     in,
		userIn: userIn,
		upkts:  make([][]U, len(sig.TUser)),
	}
	o.resetn = axisim.NewInput(&o.Latches, resetn, true)
	o.ready = axisim.NewInput(&o.Latches, sig.TReady, false)
	for _, u := range sig.TUser {
		o.users = append(o.users, axisim.NewOutput(u))
	}

	o.valid.Set(false)
	s.AddPeripheral(o)
	return o, nil
}

// Busy reports whether a packet is being transmitted.
//
func (o *Source[D, K, U]) Busy() bool { return o.busy || o.offering }

// Packets returns the number of packets fully accepted by the receiver.
//
func (o *Source[D, K, U]) Packets() int { return o.packets }

// Beats returns the number of beats accepted by the receiver.
//
func (o *Source[D, K, U]) Beats() int { return o.beats }

func (o *Source[D, K, U]) reset() {
	if o.Busy() {
		o.log.Debug().Int("remaining", len(o.pkt)-o.pos).Msg("reset: dropping packet in flight")
	}
	o.busy, o.offering = false, false
	o.pkt, o.pos = nil, 0
	o.valid.Set(false)
}

// Eval implements axisim.Peripheral.
//
func (o *Source[D, K, U]) Eval() error {
	if !o.clk.Rising() {
		return nil
	}
	if !o.resetn.Value() {
		o.reset()
		return nil
	}
	if o.offering {
		if !o.ready.Value() {
			// hold the current beat until accepted
			return nil
		}
		o.beats++
		o.m.Beat(o.cfg.Name)
		if o.offerLast {
			o.packets++
			o.m.Packet(o.cfg.Name)
		}
	}
	if !o.busy {
		ok, err := o.next()
		if err != nil {
			return err
		}
		if !ok {
			o.offering = false
			o.valid.Set(false)
			return nil
		}
	}
	o.emit()
	return nil
}

// next pulls the next non empty packet and its sideband packets.
//
func (o *Source[D, K, U]) next() (bool, error) {
	var p []byte
	for {
		var ok bool
		if p, ok = o.in.Receive(); !ok {
			return false, nil
		}
		if len(p) > 0 {
			break
		}
		o.log.Warn().Msg("skipping empty packet")
	}
	for i, src := range o.userIn {
		up, ok := src.Receive()
		if !ok || len(up) == 0 {
			return false, axisim.Errorf(axisim.KindSidebandMissing, "no sideband packet on channel %d for packet %d", i, o.packets)
		}
		o.upkts[i] = up
	}
	o.pkt, o.pos, o.beat = p, 0, 0
	o.busy = true
	return true, nil
}

func (o *Source[D, K, U]) emit() {
	var d, keep uint64
	if o.cfg.Packed {
		n := len(o.pkt) - o.pos
		if n > o.width {
			n = o.width
		}
		for i := 0; i < n; i++ {
			d |= uint64(o.pkt[o.pos+i]) << (8 * uint(i))
		}
		keep = Mask(n)
		o.pos += n
	} else {
		for lane := 0; lane < o.width && o.pos < len(o.pkt); lane++ {
			if o.rng.Intn(2) == 1 {
				d |= uint64(o.pkt[o.pos]) << (8 * uint(lane))
				keep |= 1 << uint(lane)
				o.pos++
			}
		}
		if keep == 0 {
			lane := o.rng.Intn(o.width)
			d = uint64(o.pkt[o.pos]) << (8 * uint(lane))
			keep = 1 << uint(lane)
			o.pos++
		}
	}
	last := o.pos == len(o.pkt)

	for i, up := range o.upkts {
		j := o.beat
		if j >= len(up) {
			j = len(up) - 1
		}
		o.users[i].Set(up[j])
	}
	o.beat++

	o.data.Set(D(d))
	o.keep.Set(K(keep))
	o.last.Set(last)
	o.valid.Set(true)
	o.offering, o.offerLast = true, last
	if last {
		o.busy = false
	}
}
