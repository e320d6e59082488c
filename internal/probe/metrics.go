package probe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/veesix-networks/checkdhcp/pkg/check"
)

// Metrics holds the per-run probe series. Each run gets its own registry so the
// textfile only ever contains the latest result.
type Metrics struct {
	registry  *prometheus.Registry
	duration  prometheus.Gauge
	success   prometheus.Gauge
	state     prometheus.Gauge
	replies   prometheus.Counter
	discarded *prometheus.CounterVec
}

func NewMetrics(iface string, mode string) *Metrics {
	labels := prometheus.Labels{"interface": iface, "mode": mode}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "dhcp_probe_duration_seconds",
			Help:        "Time from sending the request until the run ended.",
			ConstLabels: labels,
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "dhcp_probe_success",
			Help:        "1 when the expected reply was received.",
			ConstLabels: labels,
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "dhcp_probe_state",
			Help:        "Plugin state of the run: 0 OK, 1 WARNING, 2 CRITICAL, 3 UNKNOWN.",
			ConstLabels: labels,
		}),
		replies: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dhcp_probe_replies_total",
			Help:        "Replies that passed validation.",
			ConstLabels: labels,
		}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "dhcp_probe_discarded_total",
			Help:        "Received datagrams dropped during validation.",
			ConstLabels: labels,
		}, []string{"reason"}),
	}

	m.registry.MustRegister(m.duration, m.success, m.state, m.replies, m.discarded)
	return m
}

func (m *Metrics) reply() {
	if m == nil {
		return
	}
	m.replies.Inc()
}

func (m *Metrics) discard(reason string) {
	if m == nil {
		return
	}
	m.discarded.WithLabelValues(reason).Inc()
}

// Observe records the outcome of a run.
func (m *Metrics) Observe(res check.Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.duration.Set(elapsed.Seconds())
	m.state.Set(float64(res.State.ExitCode()))
	if res.State == check.OK {
		m.success.Set(1)
	} else {
		m.success.Set(0)
	}
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteFile writes the registry in the text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
