// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package eth

import (
	"github.com/db47h/axisim"
	"github.com/rs/zerolog"
)

// RMIISink pretends to be an RMII PHY. Only the transmit direction is
// implemented: dibits on txd are reassembled into bytes, least significant
// pair first, and when tx_en drops the preamble and SFD are checked and
// stripped. The FCS is not checked and is forwarded with the payload.
//
// The receive outputs (rxd, crs_dv, rx_er) are held low.
//
type RMIISink struct {
	axisim.Latches
	name string
	clk  *axisim.ClockGen
	log  zerolog.Logger
	m    *axisim.Metrics

	txd  axisim.Input[uint8]
	txen axisim.Input[bool]

	out axisim.PacketSink[byte]

	lastTxEn bool
	count    int
	word     byte
	pkt      []byte
	frames   int
}

// NewRMIISink creates an RMII sink and adds it to s. rxd, crsdv and rxer may
// be nil.
//
func NewRMIISink(s *axisim.Sim, clk *axisim.ClockGen, txd *uint8, txen *bool, rxd *uint8, crsdv, rxer *bool, out axisim.PacketSink[byte], name string) (*RMIISink, error) {
	if txd == nil || txen == nil {
		return nil, axisim.Errorf(axisim.KindConfig, "txd and tx_en are mandatory")
	}
	if out == nil {
		return nil, axisim.Errorf(axisim.KindConfig, "missing packet sink")
	}
	if name == "" {
		name = "rmii_sink"
	}
	r := &RMIISink{
		name: name,
		clk:  clk,
		log:  s.Logger().With().Str("peripheral", name).Logger(),
		m:    s.Metrics(),
		out:  out,
	}
	r.txd = axisim.NewInput(&r.Latches, txd, 0)
	r.txen = axisim.NewInput(&r.Latches, txen, false)

	axisim.NewOutput(rxd).Set(0)
	axisim.NewOutput(crsdv).Set(false)
	axisim.NewOutput(rxer).Set(false)

	s.AddPeripheral(r)
	return r, nil
}

// Frames returns the number of frames received.
//
func (r *RMIISink) Frames() int { return r.frames }

// Eval implements axisim.Peripheral.
//
func (r *RMIISink) Eval() error {
	if !r.clk.Rising() {
		return nil
	}
	txen := r.txen.Value()
	if txen {
		r.word |= (r.txd.Value() & 3) << (uint(r.count) * 2)
		if r.count == 3 {
			r.pkt = append(r.pkt, r.word)
			r.count, r.word = 0, 0
		} else {
			r.count++
		}
	} else if r.lastTxEn {
		p, err := stripPreamble(r.pkt)
		r.pkt, r.count, r.word = nil, 0, 0
		if err != nil {
			return err
		}
		r.frames++
		r.m.Packet(r.name)
		r.log.Debug().Int("bytes", len(p)).Msg("frame received")
		r.out.Send(p)
	}
	r.lastTxEn = txen
	return nil
}

// stripPreamble checks that p starts with exactly PreambleLen preamble bytes
// followed by the SFD and returns the remaining bytes.
//
func stripPreamble(p []byte) ([]byte, error) {
	for i := 0; ; i++ {
		if i == len(p) {
			return nil, axisim.Errorf(axisim.KindTruncated, "packet finished before the SFD")
		}
		switch p[i] {
		case SFD:
			if i != PreambleLen {
				return nil, axisim.Errorf(axisim.KindPreamble, "incorrect number of preamble bytes: %d", i)
			}
			return p[i+1:], nil
		case PreambleByte:
		default:
			return nil, axisim.Errorf(axisim.KindPreamble, "unexpected byte in preamble: %#02x", p[i])
		}
	}
}
