// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axisim

// A PacketSource supplies packets to a peripheral. Receive never blocks: it
// returns false when no packet is available at the time of the call.
//
type PacketSource[T any] interface {
	Receive() ([]T, bool)
}

// A PacketSink accepts complete packets from a peripheral. The sink owns the
// slice passed to Send.
//
type PacketSink[T any] interface {
	Send(p []T)
}

// SourceFunc adapts a function to the PacketSource interface.
//
type SourceFunc[T any] func() ([]T, bool)

// Receive calls f.
//
func (f SourceFunc[T]) Receive() ([]T, bool) { return f() }

// SinkFunc adapts a function to the PacketSink interface.
//
type SinkFunc[T any] func([]T)

// Send calls f(p).
//
func (f SinkFunc[T]) Send(p []T) { f(p) }

// SliceSource serves a fixed list of packets, in order.
//
type SliceSource[T any] struct {
	pkts [][]T
	next int
}

// NewSliceSource returns a source for the given packets. The packets are
// copied.
//
func NewSliceSource[T any](pkts ...[]T) *SliceSource[T] {
	s := &SliceSource[T]{pkts: make([][]T, len(pkts))}
	for i, p := range pkts {
		s.pkts[i] = append([]T(nil), p...)
	}
	return s
}

// Receive returns the next packet, if any.
//
func (s *SliceSource[T]) Receive() ([]T, bool) {
	if s.next >= len(s.pkts) {
		return nil, false
	}
	p := s.pkts[s.next]
	s.next++
	return p, true
}

// Remaining returns the number of packets not yet received.
//
func (s *SliceSource[T]) Remaining() int { return len(s.pkts) - s.next }

// SliceSink stores every packet it receives.
//
type SliceSink[T any] struct {
	pkts [][]T
}

// Send stores p.
//
func (s *SliceSink[T]) Send(p []T) { s.pkts = append(s.pkts, p) }

// Packets returns the stored packets.
//
func (s *SliceSink[T]) Packets() [][]T { return s.pkts }

// Len returns the number of stored packets.
//
func (s *SliceSink[T]) Len() int { return len(s.pkts) }

// ChanSource receives packets from a channel without blocking.
//
type ChanSource[T any] <-chan []T

// Receive returns a packet if one is ready on the channel.
//
func (c ChanSource[T]) Receive() ([]T, bool) {
	select {
	case p, ok := <-c:
		return p, ok
	default:
		return nil, false
	}
}
