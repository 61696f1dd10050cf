// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package axis provides AXI4-Stream peripherals: a Source that encodes packets
// into stream beats and a Sink that decodes beats back into packets.
//
// Data words are little endian: byte i of a packet beat is carried by bits
// [8*i+7:8*i] of tdata and qualified by bit i of tkeep.
//
package axis

import (
	"math/bits"

	"github.com/db47h/axisim"
)

// Word is the set of types usable for tdata, tkeep and tuser signals.
//
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Signals binds a stream peripheral to the signals of the device under test.
// TReady and TValid are mandatory. Any other nil signal is absent.
//
// TUser holds one pointer per sideband channel; nil entries are not allowed.
//
type Signals[D, K, U Word] struct {
	TReady *bool
	TValid *bool
	TLast  *bool
	TKeep  *K
	TData  *D
	TUser  []*U
}

func (s *Signals[D, K, U]) check() error {
	if s.TReady == nil || s.TValid == nil {
		return axisim.Errorf(axisim.KindConfig, "tready and tvalid are mandatory")
	}
	for i, u := range s.TUser {
		if u == nil {
			return axisim.Errorf(axisim.KindConfig, "tuser[%d] is nil", i)
		}
	}
	return nil
}

// Wires is a set of stream signals that devices and peripherals can share.
//
type Wires[D, K Word] struct {
	TReady bool
	TValid bool
	TLast  bool
	TKeep  K
	TData  D
}

// Signals returns a Signals bound to all of w's wires, without sideband
// channels.
//
func (w *Wires[D, K]) Signals() Signals[D, K, uint8] {
	return Connect[uint8](w)
}

// Connect returns a Signals bound to all of w's wires plus the given sideband
// channels.
//
func Connect[U Word, D, K Word](w *Wires[D, K], users ...*U) Signals[D, K, U] {
	return Signals[D, K, U]{
		TReady: &w.TReady,
		TValid: &w.TValid,
		TLast:  &w.TLast,
		TKeep:  &w.TKeep,
		TData:  &w.TData,
		TUser:  users,
	}
}

func bitsOf[T Word]() int {
	return bits.OnesCount64(uint64(^T(0)))
}

// Mask returns a keep mask with the n low order bits set.
//
func Mask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(n) - 1
}

// Contiguous reports whether the set bits of keep form a single run starting
// at bit 0. A zero keep is contiguous.
//
func Contiguous(keep uint64) bool {
	return keep&(keep+1) == 0
}

// checkKeep validates keep against the packed stream rules for a word of
// width bytes.
//
func checkKeep(keep uint64, width int, last bool) error {
	if keep&^Mask(width) != 0 {
		return axisim.Errorf(axisim.KindKeepRange, "tkeep %#x has bits set above the %d byte data width", keep, width)
	}
	if !Contiguous(keep) {
		return axisim.Errorf(axisim.KindKeepSparse, "tkeep %#x is not a contiguous low order run", keep)
	}
	if !last && keep != Mask(width) {
		return axisim.Errorf(axisim.KindNotPacked, "tkeep %#x on a non-final beat is not fully packed", keep)
	}
	return nil
}

func checkWidth(width, dataBits, keepBits int, haveKeep bool) (int, error) {
	if width == 0 {
		width = dataBits / 8
	}
	if width < 1 || width*8 > dataBits {
		return 0, axisim.Errorf(axisim.KindConfig, "width of %d bytes does not fit a %d bit data word", width, dataBits)
	}
	if haveKeep && width > keepBits {
		return 0, axisim.Errorf(axisim.KindConfig, "width of %d bytes does not fit a %d bit keep word", width, keepBits)
	}
	return width, nil
}
