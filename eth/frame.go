// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package eth provides Ethernet MAC framing and the GMII/RMII peripherals
// that exchange frames with a device under test.
//
// A frame on the line is 7 preamble bytes (0x55), the start frame delimiter
// (0xD5), a payload of at least MinPayload bytes and a 4 byte frame check
// sequence: the IEEE CRC32 of the payload, big endian.
//
package eth

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/db47h/axisim"
)

// Framing constants.
//
const (
	PreambleLen    = 7
	PreambleByte   = 0x55
	SFD            = 0xD5
	MinPayload     = 60
	FCSLen         = 4
	MinFrame       = MinPayload + FCSLen
	InterPacketGap = 12
)

// FCS returns the frame check sequence of payload.
//
func FCS(payload []byte) uint32 {
	return crc32.ChecksumIEEE(payload)
}

// Frame pads payload with zeros to MinPayload bytes, appends its FCS and
// prepends the preamble and SFD. payload is not modified.
//
func Frame(payload []byte) []byte {
	n := len(payload)
	if n < MinPayload {
		n = MinPayload
	}
	f := make([]byte, PreambleLen+1, PreambleLen+1+n+FCSLen)
	for i := 0; i < PreambleLen; i++ {
		f[i] = PreambleByte
	}
	f[PreambleLen] = SFD
	f = append(f, payload...)
	f = f[:PreambleLen+1+n] // zero padding
	return binary.BigEndian.AppendUint32(f, FCS(f[PreambleLen+1:]))
}

// Deframe validates a frame as captured on the line and returns its payload.
// The FCS is stripped unless keepFCS is true.
//
// Padding cannot be told apart from payload and is returned as is: a payload
// shorter than MinPayload comes back as MinPayload bytes, the original bytes
// followed by zeros. Callers that need the exact payload must know its length
// and truncate the result.
//
func Deframe(frame []byte, keepFCS bool) ([]byte, error) {
	i := 0
	for i < len(frame) && frame[i] == PreambleByte {
		i++
	}
	if i < PreambleLen {
		return nil, axisim.Errorf(axisim.KindPreamble, "not enough preamble bytes: got %d, need %d", i, PreambleLen)
	}
	if i == len(frame) {
		return nil, axisim.Errorf(axisim.KindTruncated, "frame ended before the SFD")
	}
	if frame[i] != SFD {
		return nil, axisim.Errorf(axisim.KindSFD, "no SFD or SFD has incorrect value %#02x", frame[i])
	}
	body := frame[i+1:]
	if len(body) < MinFrame {
		return nil, axisim.Errorf(axisim.KindFrameSize, "frame is too small: %d bytes after the SFD, need %d", len(body), MinFrame)
	}
	n := len(body) - FCSLen
	want := binary.BigEndian.Uint32(body[n:])
	if got := FCS(body[:n]); got != want {
		return nil, axisim.Errorf(axisim.KindCRC, "CRC is incorrect: frame says %08x, computed %08x", want, got)
	}
	if keepFCS {
		n = len(body)
	}
	return append([]byte(nil), body[:n]...), nil
}
