// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axisim

import "strconv"

// A Latcher saves the current value of a signal so that it can be read later
// in the same step, regardless of any update to that signal in between.
//
type Latcher interface {
	Latch()
}

// LatchID is a stable handle to a Latcher registered with a Latches set.
//
type LatchID int

// Latches is the set of inputs a peripheral samples at the beginning of each
// simulation step, before the device under test and any peripheral is
// evaluated. Peripherals embed a Latches and register their inputs with it.
//
// Registered latchers are addressed by LatchID. Handles remain valid when
// other latchers are registered or removed.
//
type Latches struct {
	slots []Latcher // nil slots have been deregistered
	live  int
}

// Register adds l to the set and returns its handle. Registering the same
// Latcher twice is a programming error and panics.
//
func (ls *Latches) Register(l Latcher) LatchID {
	if l == nil {
		panic("register nil latcher")
	}
	for _, s := range ls.slots {
		if s == l {
			panic("attempt to register an input that is already registered")
		}
	}
	ls.slots = append(ls.slots, l)
	ls.live++
	return LatchID(len(ls.slots) - 1)
}

// Deregister removes the latcher with the given handle. Removing a handle that
// is not registered panics.
//
func (ls *Latches) Deregister(id LatchID) {
	if id < 0 || int(id) >= len(ls.slots) || ls.slots[id] == nil {
		panic("attempt to remove input " + strconv.Itoa(int(id)) + " that was not registered")
	}
	ls.slots[id] = nil
	ls.live--
}

// Registered reports whether id is a live handle.
//
func (ls *Latches) Registered(id LatchID) bool {
	return id >= 0 && int(id) < len(ls.slots) && ls.slots[id] != nil
}

// Len returns the number of registered latchers.
//
func (ls *Latches) Len() int { return ls.live }

// Latch refreshes every registered latcher, in registration order.
//
func (ls *Latches) Latch() {
	for _, l := range ls.slots {
		if l != nil {
			l.Latch()
		}
	}
}

func (ls *Latches) get(id LatchID) Latcher {
	if !ls.Registered(id) {
		panic("read of input " + strconv.Itoa(int(id)) + " that is not registered")
	}
	return ls.slots[id]
}

type latch[T any] struct {
	src   *T
	def   T
	saved T
}

func (l *latch[T]) Latch() {
	if l.src != nil {
		l.saved = *l.src
	} else {
		l.saved = l.def
	}
}

// Input is a latched view of a signal owned by someone else, usually the
// device under test. Its value only changes when its owner refreshes it.
//
type Input[T any] struct {
	owner   *Latches
	id      LatchID
	present bool
}

// NewInput registers a latch on src with owner and returns a handle to it.
// A nil src is an absent signal: its value is always def.
//
// The latch is refreshed once before NewInput returns.
//
func NewInput[T any](owner *Latches, src *T, def T) Input[T] {
	l := &latch[T]{src: src, def: def}
	l.Latch()
	return Input[T]{owner: owner, id: owner.Register(l), present: src != nil}
}

// Value returns the value saved by the last refresh.
//
func (in Input[T]) Value() T {
	return in.owner.get(in.id).(*latch[T]).saved
}

// Present reports whether the input is connected to a signal.
//
func (in Input[T]) Present() bool { return in.present }

// ID returns the input's handle in its owner's set.
//
func (in Input[T]) ID() LatchID { return in.id }

// Remove deregisters the input from its owner. Any subsequent call to Value
// panics.
//
func (in Input[T]) Remove() {
	in.owner.Deregister(in.id)
}

// Output writes to an optional signal. Writes to an absent output are
// silently discarded.
//
type Output[T any] struct {
	dst *T
}

// NewOutput returns an Output writing to dst, which may be nil.
//
func NewOutput[T any](dst *T) Output[T] {
	return Output[T]{dst: dst}
}

// Set writes v to the output signal.
//
func (o Output[T]) Set(v T) {
	if o.dst != nil {
		*o.dst = v
	}
}

// Present reports whether the output is connected to a signal.
//
func (o Output[T]) Present() bool { return o.dst != nil }
