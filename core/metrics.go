package core

import (
	"net"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	promLabelTool    = "tool"
	promLabelOutcome = "outcome"
	promLabelRunID   = "run_id"
	promLabelTarget  = "target"
)

// Metrics counts probe outcomes and round-trip times on a registry of its own.
type Metrics struct {
	registry *prometheus.Registry
	probes   *prometheus.CounterVec
	rtt      *prometheus.HistogramVec
	runs     *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pingtrace_probes_total",
				Help: "The number of probes sent, by tool and outcome",
			},
			[]string{promLabelTool, promLabelOutcome},
		),
		rtt: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pingtrace_probe_rtt_seconds",
				Help:    "The round-trip time of answered probes",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{promLabelTool},
		),
		runs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pingtrace_run_info",
				Help: "Always 1, identifies the runs whose probes were counted",
			},
			[]string{promLabelRunID, promLabelTool, promLabelTarget},
		),
	}

	m.registry.MustRegister(m.probes, m.rtt, m.runs)
	return m
}

// Observe accounts for one probe outcome. It is a no-op on a nil Metrics.
func (m *Metrics) Observe(tool string, out *Outcome) {
	if m == nil {
		return
	}

	m.probes.WithLabelValues(tool, out.Kind.String()).Inc()
	if out.Kind == Success || out.Kind == TTLExceeded {
		m.rtt.WithLabelValues(tool).Observe(out.Delay.Seconds())
	}
}

// RunStarted records the identifier of a run of tool against target. It is a no-op on a nil
// Metrics.
func (m *Metrics) RunStarted(tool, runID string, target net.IP) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(runID, tool, target.String()).Set(1)
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the text exposition format, for the node exporter
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
