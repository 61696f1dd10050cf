// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axisim

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects simulation counters. A nil *Metrics is valid and records
// nothing.
//
type Metrics struct {
	Steps      prometheus.Counter
	Beats      *prometheus.CounterVec
	Packets    *prometheus.CounterVec
	Errors     *prometheus.CounterVec
	LineErrors *prometheus.CounterVec
}

// NewMetrics creates the simulation counters and registers them with reg.
//
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "axisim",
			Name:      "steps_total",
			Help:      "Simulation steps executed.",
		}),
		Beats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axisim",
			Name:      "beats_total",
			Help:      "Stream beats or line bytes transferred, per peripheral.",
		}, []string{"peripheral"}),
		Packets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axisim",
			Name:      "packets_total",
			Help:      "Packets or frames completed, per peripheral.",
		}, []string{"peripheral"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axisim",
			Name:      "errors_total",
			Help:      "Fatal simulation errors, per kind.",
		}, []string{"kind"}),
		LineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axisim",
			Name:      "line_errors_total",
			Help:      "Frames discarded because of a line error, per peripheral.",
		}, []string{"peripheral"}),
	}
	for _, c := range []prometheus.Collector{m.Steps, m.Beats, m.Packets, m.Errors, m.LineErrors} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register metrics")
		}
	}
	return m, nil
}

func (m *Metrics) step() {
	if m != nil {
		m.Steps.Inc()
	}
}

// Beat counts one beat for the named peripheral.
//
func (m *Metrics) Beat(peripheral string) {
	if m != nil {
		m.Beats.WithLabelValues(peripheral).Inc()
	}
}

// Packet counts one completed packet for the named peripheral.
//
func (m *Metrics) Packet(peripheral string) {
	if m != nil {
		m.Packets.WithLabelValues(peripheral).Inc()
	}
}

// LineError counts one discarded frame for the named peripheral.
//
func (m *Metrics) LineError(peripheral string) {
	if m != nil {
		m.LineErrors.WithLabelValues(peripheral).Inc()
	}
}

func (m *Metrics) fail(err error) {
	if m != nil {
		m.Errors.WithLabelValues(KindOf(err).String()).Inc()
	}
}
