// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing devices and
// peripherals.
//
package hwtest

import (
	"bytes"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Trace logs the stack trace attached to err, if any.
//
func Trace(t testing.TB, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

// Logger returns a debug level logger writing to t. t is usually a
// *testing.T or a GinkgoT().
//
func Logger(t zerolog.TestingLog) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// RandomPackets returns n packets of random content with lengths in
// [1, maxLen].
//
func RandomPackets(rng *rand.Rand, n, maxLen int) [][]byte {
	pkts := make([][]byte, n)
	for i := range pkts {
		p := make([]byte, 1+rng.Intn(maxLen))
		rng.Read(p)
		pkts[i] = p
	}
	return pkts
}

// Counting returns a packet of n bytes holding 0, 1, 2, ...
//
func Counting(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}

// Dump formats packets as hex strings, one per line.
//
func Dump(pkts [][]byte) string {
	var b strings.Builder
	for i, p := range pkts {
		fmt.Fprintf(&b, "%d: % x\n", i, p)
	}
	return b.String()
}

// ComparePackets fails t if got and want differ.
//
func ComparePackets(t testing.TB, got, want [][]byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d packets, want %d\ngot:\n%swant:\n%s", len(got), len(want), Dump(got), Dump(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("packet %d differs\ngot:  % x\nwant: % x", i, got[i], want[i])
		}
	}
}

// SidebandConstant checks that every beat of every packet carries the same
// sideband value as the first beat of that packet.
//
func SidebandConstant[U comparable](pkts [][]U) error {
	for i, p := range pkts {
		for j := 1; j < len(p); j++ {
			if p[j] != p[0] {
				return errors.Errorf("packet %d: sideband value changes at beat %d: %v != %v", i, j, p[j], p[0])
			}
		}
	}
	return nil
}
