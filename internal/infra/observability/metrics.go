package observability

import (
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics of the client.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	Registry *prometheus.Registry

	callDuration   *prometheus.HistogramVec
	callFailures   *prometheus.CounterVec
	sessionExpired prometheus.Counter
	chatSends      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// client metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ftclient_call_duration_seconds",
				Help:    "Duration of backend calls by endpoint.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		callFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftclient_call_failures_total",
				Help: "Failed backend calls by error kind.",
			},
			[]string{"kind"},
		),
		sessionExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ftclient_session_expired_total",
				Help: "Sessions ended by a 401 from the backend.",
			},
		),
		chatSends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ftclient_chat_sends_total",
				Help: "Chat send cycles by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordCall records the duration of a backend call.
func (m *Metrics) RecordCall(endpoint string, d time.Duration) {
	m.callDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncrCallFailure counts a failed call by its error kind.
func (m *Metrics) IncrCallFailure(kind domain.ErrorKind) {
	m.callFailures.WithLabelValues(string(kind)).Inc()
}

// IncrSessionExpired counts a forced logout.
func (m *Metrics) IncrSessionExpired() {
	m.sessionExpired.Inc()
}

// IncrChatSend counts a finished chat send cycle.
func (m *Metrics) IncrChatSend(kind domain.ErrorKind) {
	m.chatSends.WithLabelValues(string(kind)).Inc()
}

// Snapshot is a point-in-time copy of the counters, for `ftclient stats`
// and tests.
type Snapshot struct {
	Calls          uint64
	Failures       map[domain.ErrorKind]float64
	SessionExpired float64
	ChatSends      map[domain.ErrorKind]float64
}

// Snapshot gathers the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Failures:  make(map[domain.ErrorKind]float64),
		ChatSends: make(map[domain.ErrorKind]float64),
	}

	families, err := m.Registry.Gather()
	if err != nil {
		return s
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch mf.GetName() {
			case "ftclient_call_duration_seconds":
				s.Calls += metric.GetHistogram().GetSampleCount()
			case "ftclient_call_failures_total":
				s.Failures[domain.ErrorKind(labelValue(metric, "kind"))] = metric.GetCounter().GetValue()
			case "ftclient_session_expired_total":
				s.SessionExpired = metric.GetCounter().GetValue()
			case "ftclient_chat_sends_total":
				s.ChatSends[domain.ErrorKind(labelValue(metric, "outcome"))] = metric.GetCounter().GetValue()
			}
		}
	}
	return s
}

// labelValue extracts a label value from a gathered metric.
func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
