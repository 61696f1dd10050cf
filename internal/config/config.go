// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads simulation scenarios from TOML files.
//
// A scenario names the device under test, the stream settings of the
// peripherals driving it and the packets to send:
//
//	device = "roundrobin"
//	outputs = 2
//	packets = [[0, 1, 2, 3], [4, 5, 6, 7], [8, 9], [10, 11]]
//
//	[source]
//	width = 4
//
package config

import (
	"io"
	"math/rand"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/db47h/axisim"
	"github.com/pkg/errors"
)

// Supported devices.
//
const (
	DeviceRegister     = "register"
	DeviceFIFO         = "fifo"
	DeviceRoundRobin   = "roundrobin"
	DeviceBroadcaster  = "broadcaster"
	DeviceGMIILoopback = "gmii-loopback"
)

// Defaults.
//
const (
	DefaultResolution = 1e-9
	DefaultFrequency  = 100e6
	DefaultMaxSteps   = 1 << 24
	DefaultWidth      = 4
	DefaultOutputs    = 2
	DefaultDepth      = 16
	DefaultLatency    = 1
	DefaultMaxLen     = 64
)

// Limits.
//
const (
	MaxOutputs       = 64
	MaxDepth         = 1 << 16
	MaxLatency       = 1 << 16
	MaxRandomPackets = 1 << 14
	MaxPacketLen     = 1 << 14
)

// Clock sets the simulation time step and the device clock frequency.
//
type Clock struct {
	Resolution float64 `toml:"resolution"`
	Frequency  float64 `toml:"frequency"`
}

// Stream configures a stream peripheral.
//
type Stream struct {
	Packed bool `toml:"packed"`
	Width  int  `toml:"width"`
}

// Scenario is a complete simulation setup.
//
type Scenario struct {
	Device   string `toml:"device"`
	MaxSteps uint64 `toml:"max_steps"`
	Seed     int64  `toml:"seed"`
	KeepFCS  bool   `toml:"keep_fcs"`
	Outputs  int    `toml:"outputs"`
	Depth    int    `toml:"depth"`
	Latency  int    `toml:"latency"`

	Packets       [][]int `toml:"packets"`
	RandomPackets int     `toml:"random_packets"`
	MaxLen        int     `toml:"max_len"`

	Clock  Clock  `toml:"clock"`
	Source Stream `toml:"source"`
	Sink   Stream `toml:"sink"`
}

// Default returns a scenario with every setting at its default value and no
// packets.
//
func Default() Scenario {
	return Scenario{
		Device:   DeviceRegister,
		MaxSteps: DefaultMaxSteps,
		Outputs:  DefaultOutputs,
		Depth:    DefaultDepth,
		Latency:  DefaultLatency,
		MaxLen:   DefaultMaxLen,
		Clock:    Clock{Resolution: DefaultResolution, Frequency: DefaultFrequency},
		Source:   Stream{Packed: true, Width: DefaultWidth},
		Sink:     Stream{Packed: true, Width: DefaultWidth},
	}
}

// LoadFile reads and validates the scenario in the named file.
//
func LoadFile(path string) (Scenario, error) {
	sc := Default()
	md, err := toml.DecodeFile(path, &sc)
	if err != nil {
		return Scenario{}, errors.Wrapf(err, "load scenario %s", path)
	}
	return finish(sc, md)
}

// Parse decodes and validates a scenario.
//
func Parse(data string) (Scenario, error) {
	sc := Default()
	md, err := toml.Decode(data, &sc)
	if err != nil {
		return Scenario{}, errors.Wrap(err, "parse scenario")
	}
	return finish(sc, md)
}

func finish(sc Scenario, md toml.MetaData) (Scenario, error) {
	if keys := md.Undecoded(); len(keys) > 0 {
		return Scenario{}, axisim.Errorf(axisim.KindConfig, "unknown scenario key %q", keys[0].String())
	}
	sc.Device = strings.ToLower(strings.TrimSpace(sc.Device))
	// the sink width follows the source unless set
	if !md.IsDefined("sink", "width") {
		sc.Sink.Width = sc.Source.Width
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Validate checks the scenario for errors.
//
func (sc *Scenario) Validate() error {
	switch sc.Device {
	case DeviceRegister, DeviceFIFO, DeviceRoundRobin, DeviceBroadcaster, DeviceGMIILoopback:
	default:
		return axisim.Errorf(axisim.KindConfig, "unknown device %q", sc.Device)
	}
	if sc.MaxSteps == 0 {
		return axisim.Errorf(axisim.KindConfig, "max_steps must be positive")
	}
	if sc.Clock.Resolution <= 0 || sc.Clock.Frequency <= 0 {
		return axisim.Errorf(axisim.KindConfig, "invalid clock resolution %g or frequency %g", sc.Clock.Resolution, sc.Clock.Frequency)
	}
	for _, s := range []struct {
		name string
		Stream
	}{{"source", sc.Source}, {"sink", sc.Sink}} {
		if s.Width < 1 || s.Width > 8 {
			return axisim.Errorf(axisim.KindConfig, "%s width must be in [1, 8], got %d", s.name, s.Width)
		}
	}
	if sc.Source.Width != sc.Sink.Width {
		return axisim.Errorf(axisim.KindConfig, "source and sink widths differ: %d != %d", sc.Source.Width, sc.Sink.Width)
	}
	if sc.Outputs < 1 || sc.Outputs > MaxOutputs {
		return axisim.Errorf(axisim.KindConfig, "outputs must be in [1, %d], got %d", MaxOutputs, sc.Outputs)
	}
	if sc.Depth < 1 || sc.Depth > MaxDepth {
		return axisim.Errorf(axisim.KindConfig, "depth must be in [1, %d], got %d", MaxDepth, sc.Depth)
	}
	if sc.Latency > MaxLatency {
		return axisim.Errorf(axisim.KindConfig, "latency must be at most %d, got %d", MaxLatency, sc.Latency)
	}
	if sc.RandomPackets < 0 || sc.RandomPackets > MaxRandomPackets {
		return axisim.Errorf(axisim.KindConfig, "random_packets must be in [0, %d], got %d", MaxRandomPackets, sc.RandomPackets)
	}
	if sc.RandomPackets > 0 && (sc.MaxLen < 1 || sc.MaxLen > MaxPacketLen) {
		return axisim.Errorf(axisim.KindConfig, "max_len must be in [1, %d], got %d", MaxPacketLen, sc.MaxLen)
	}
	if len(sc.Packets)+sc.RandomPackets == 0 {
		return axisim.Errorf(axisim.KindConfig, "no packets to send")
	}
	for i, p := range sc.Packets {
		if len(p) == 0 || len(p) > MaxPacketLen {
			return axisim.Errorf(axisim.KindConfig, "packet %d length must be in [1, %d], got %d", i, MaxPacketLen, len(p))
		}
		for j, b := range p {
			if b < 0 || b > 255 {
				return axisim.Errorf(axisim.KindConfig, "packet %d byte %d out of range: %d", i, j, b)
			}
		}
	}
	return nil
}

// Payloads returns the packets of the scenario: the literal packets followed
// by the random ones, generated from Seed.
//
func (sc *Scenario) Payloads() [][]byte {
	pkts := make([][]byte, 0, len(sc.Packets)+sc.RandomPackets)
	for _, p := range sc.Packets {
		b := make([]byte, len(p))
		for i, v := range p {
			b[i] = byte(v)
		}
		pkts = append(pkts, b)
	}
	rng := rand.New(rand.NewSource(sc.Seed))
	for i := 0; i < sc.RandomPackets; i++ {
		b := make([]byte, 1+rng.Intn(sc.MaxLen))
		rng.Read(b)
		pkts = append(pkts, b)
	}
	return pkts
}

// Encode writes sc as TOML.
//
func (sc *Scenario) Encode(w io.Writer) error {
	return errors.Wrap(toml.NewEncoder(w).Encode(sc), "encode scenario")
}
