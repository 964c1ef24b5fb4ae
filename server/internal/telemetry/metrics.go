package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "topchat"

// Frame rejection reasons used as the "reason" label.
const (
	ReasonMalformed = "malformed"
	ReasonIdentity  = "identity"
)

// Metrics holds every collector exported on /metrics.
type Metrics struct {
	ActiveSessions     prometheus.Gauge
	SessionsTotal      prometheus.Counter
	SnapshotsPublished prometheus.Counter
	SnapshotsReplaced  prometheus.Counter
	SampleErrors       prometheus.Counter
	InboxEvicted       prometheus.Counter
	ChatMessages       prometheus.Counter
	FramesRejected     *prometheus.CounterVec
	WriteErrors        prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of registered WebSocket sessions",
		}),
		SessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of sessions accepted",
		}),
		SnapshotsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Total number of snapshots handed to the broadcast hub",
		}),
		SnapshotsReplaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_replaced_total",
			Help:      "Undelivered snapshots overwritten by a newer one in a subscriber slot",
		}),
		SampleErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sample_errors_total",
			Help:      "Producer ticks skipped because the metrics source failed",
		}),
		InboxEvicted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbox_evicted_total",
			Help:      "Chat messages dropped because the inbox was full",
		}),
		ChatMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages accepted into the inbox",
		}),
		FramesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_rejected_total",
			Help:      "Inbound frames dropped, by reason",
		}, []string{"reason"}),
		WriteErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_errors_total",
			Help:      "Session writes that failed and ended the session",
		}),
	}
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
	m.SessionsTotal.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

func (m *Metrics) Published() {
	if m == nil {
		return
	}
	m.SnapshotsPublished.Inc()
}

func (m *Metrics) Replaced() {
	if m == nil {
		return
	}
	m.SnapshotsReplaced.Inc()
}

func (m *Metrics) SampleFailed() {
	if m == nil {
		return
	}
	m.SampleErrors.Inc()
}

func (m *Metrics) Evicted() {
	if m == nil {
		return
	}
	m.InboxEvicted.Inc()
}

func (m *Metrics) Queued() {
	if m == nil {
		return
	}
	m.ChatMessages.Inc()
}

func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.FramesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) WriteFailed() {
	if m == nil {
		return
	}
	m.WriteErrors.Inc()
}
