// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Thermoquad/ixdump/pkg/ratio"
)

// dumpMetrics are the gauges and counters of one dump run
type dumpMetrics struct {
	Requests   prometheus.Counter
	Acks       prometheus.Counter
	Naks       prometheus.Counter
	Errors     *prometheus.CounterVec // labels: kind
	Dives      prometheus.Counter
	Samples    prometheus.Counter
	Anomalies  prometheus.Counter
	Downloaded prometheus.Gauge
	Skipped    prometheus.Gauge
	LastRun    prometheus.Gauge
}

func newDumpMetrics(reg *prometheus.Registry) *dumpMetrics {
	m := &dumpMetrics{
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ixdump_requests_total",
			Help: "Requests sent to the dive computer.",
		}),
		Acks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ixdump_acks_total",
			Help: "Responses acknowledged by the dive computer.",
		}),
		Naks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ixdump_naks_total",
			Help: "Requests rejected by the dive computer.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ixdump_errors_total",
			Help: "Failed exchanges by kind.",
		}, []string{"kind"}),
		Dives: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ixdump_dives_total",
			Help: "Dives downloaded completely.",
		}),
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ixdump_samples_total",
			Help: "Dive samples downloaded.",
		}),
		Anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ixdump_anomalies_total",
			Help: "Implausible values found in downloaded dives.",
		}),
		Downloaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ixdump_last_run_downloaded_dives",
			Help: "Dives downloaded by the last run.",
		}),
		Skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ixdump_last_run_skipped_dives",
			Help: "Dives skipped by the last run because they were archived.",
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ixdump_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}
	reg.MustRegister(m.Requests, m.Acks, m.Naks, m.Errors, m.Dives, m.Samples, m.Anomalies, m.Downloaded, m.Skipped, m.LastRun)
	return m
}

func (m *dumpMetrics) observe(c ratio.Counters, r dumpResult, now time.Time) {
	m.Requests.Add(float64(c.Requests))
	m.Acks.Add(float64(c.Acks))
	m.Naks.Add(float64(c.Naks))
	m.Dives.Add(float64(c.Dives))
	m.Samples.Add(float64(c.Samples))
	m.Anomalies.Add(float64(c.Anomalies))

	for kind, n := range map[string]uint64{
		"framing":   c.FramingErrors,
		"crc":       c.CRCErrors,
		"command":   c.CommandErrors,
		"trailer":   c.TrailerErrors,
		"length":    c.LengthErrors,
		"enum":      c.EnumErrors,
		"device":    c.DeviceErrors,
		"transport": c.TransportErrors,
	} {
		m.Errors.WithLabelValues(kind).Add(float64(n))
	}

	m.Downloaded.Set(float64(r.Downloaded))
	m.Skipped.Set(float64(r.Skipped))
	m.LastRun.Set(float64(now.Unix()))
}

// writeMetrics writes the run's metrics in the node_exporter textfile format
func writeMetrics(path string, c ratio.Counters, r dumpResult) error {
	reg := prometheus.NewRegistry()
	newDumpMetrics(reg).observe(c, r, time.Now())
	return prometheus.WriteToTextfile(path, reg)
}
