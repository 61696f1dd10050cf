// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axisim

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the class of a simulation failure.
//
type Kind int

// Error kinds. KindNone is returned by KindOf for errors that do not
// originate from this package.
//
const (
	KindNone Kind = iota
	KindConfig
	KindKeepRange
	KindKeepSparse
	KindNotPacked
	KindSidebandMissing
	KindPreamble
	KindSFD
	KindTruncated
	KindFrameSize
	KindCRC
	KindGap
	KindTimeout
)

var kindNames = [...]string{
	KindNone:            "none",
	KindConfig:          "config",
	KindKeepRange:       "keep_range",
	KindKeepSparse:      "keep_sparse",
	KindNotPacked:       "not_packed",
	KindSidebandMissing: "sideband_missing",
	KindPreamble:        "preamble",
	KindSFD:             "sfd",
	KindTruncated:       "truncated",
	KindFrameSize:       "frame_size",
	KindCRC:             "crc",
	KindGap:             "gap",
	KindTimeout:         "timeout",
}

// String returns the name of k used in metric labels.
//
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + fmt.Sprint(int(k)) + ")"
	}
	return kindNames[k]
}

// Error is a protocol, configuration or timeout failure. Protocol errors are
// never recoverable for the packet or frame in flight: the step that
// produced one must abort the run.
//
type Error struct {
	Kind Kind
	Msg  string
}

// Error implements the error interface.
//
func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

// Errorf returns a new *Error of the given kind. The returned error carries a
// stack trace.
//
func Errorf(kind Kind, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// KindOf returns the Kind of the *Error at the root of err's cause chain, or
// KindNone.
//
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if e, ok := errors.Cause(err).(*Error); ok {
		return e.Kind
	}
	return KindNone
}
