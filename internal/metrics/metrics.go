package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the monitor's Prometheus collectors on a private registry.
type Metrics struct {
	FramesEmitted    prometheus.Counter
	DetectionPasses  prometheus.Counter
	Detections       *prometheus.CounterVec
	AlertActive      prometheus.Gauge
	AlertPasses      prometheus.Counter
	PassDuration     prometheus.Histogram
	ActiveSessions   prometheus.Gauge
	SessionsEnded    *prometheus.CounterVec
	ActuatorErrors   prometheus.Counter
	SnapshotsFlushed prometheus.Counter
	SnapshotsDropped prometheus.Counter
	StatsViewers     prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors and registers them together with the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		FramesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_frames_emitted_total",
			Help: "Total frames sent to stream clients",
		}),
		DetectionPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_detection_passes_total",
			Help: "Total completed detection passes",
		}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_detections_total",
			Help: "Detections by display label",
		}, []string{"label"}),
		AlertActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_alert_active",
			Help: "Alert flag of the last pass (0=clear, 1=alert)",
		}),
		AlertPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_alert_passes_total",
			Help: "Detection passes that raised the alert",
		}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_pass_duration_seconds",
			Help:    "Detection, annotation and publication time per pass",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_active_sessions",
			Help: "Number of open /video streams",
		}),
		SessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_session_end_total",
			Help: "Ended stream sessions by reason",
		}, []string{"reason"}),
		ActuatorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_actuator_errors_total",
			Help: "Failed buzzer or MQTT updates",
		}),
		SnapshotsFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_snapshots_flushed_total",
			Help: "Alert snapshots written to disk",
		}),
		SnapshotsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monitor_snapshots_dropped_total",
			Help: "Alert snapshots discarded because the buffer was full",
		}),
		StatsViewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_stats_viewers",
			Help: "Connected /ws/stats clients",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.FramesEmitted,
		m.DetectionPasses,
		m.Detections,
		m.AlertActive,
		m.AlertPasses,
		m.PassDuration,
		m.ActiveSessions,
		m.SessionsEnded,
		m.ActuatorErrors,
		m.SnapshotsFlushed,
		m.SnapshotsDropped,
		m.StatsViewers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePass records one completed detection pass.
func (m *Metrics) ObservePass(classes map[string]int, alert bool, seconds float64) {
	m.DetectionPasses.Inc()
	m.PassDuration.Observe(seconds)
	for label, n := range classes {
		m.Detections.WithLabelValues(label).Add(float64(n))
	}
	if alert {
		m.AlertActive.Set(1)
		m.AlertPasses.Inc()
	} else {
		m.AlertActive.Set(0)
	}
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
