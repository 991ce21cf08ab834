package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the station broker
type Metrics struct {
	// UDP packet metrics
	PacketsReceived  prometheus.Counter
	PacketsProcessed prometheus.Counter
	ParseErrors      prometheus.Counter
	QueueSize        prometheus.Gauge
	SendErrors       prometheus.Counter

	// Authentication metrics
	LoginSuccesses prometheus.Counter
	LoginFailures  prometheus.Counter

	// Session metrics
	ActiveSessions  prometheus.Gauge
	SessionsEvicted prometheus.Counter
	Keepalives      prometheus.Counter

	// Routing metrics
	StatusUpdates     prometheus.Counter
	StatusFanout      prometheus.Counter
	CommandsForwarded prometheus.Counter
	CommandsRejected  prometheus.Counter
	UnknownKinds      prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// UDP packet metrics
		PacketsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_packets_received_total",
			Help: "Total number of UDP datagrams received",
		}),
		PacketsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_packets_processed_total",
			Help: "Total number of UDP datagrams successfully processed",
		}),
		ParseErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_parse_errors_total",
			Help: "Total number of datagrams dropped as malformed",
		}),
		QueueSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "broker_packet_queue_size",
			Help: "Current number of datagrams in the processing queue",
		}),
		SendErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_send_errors_total",
			Help: "Total number of failed outbound sends",
		}),

		// Authentication metrics
		LoginSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_login_successes_total",
			Help: "Total number of successful client logins",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_login_failures_total",
			Help: "Total number of rejected client logins",
		}),

		// Session metrics
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "broker_active_sessions",
			Help: "Current number of active client sessions",
		}),
		SessionsEvicted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_sessions_evicted_total",
			Help: "Total number of sessions evicted for inactivity",
		}),
		Keepalives: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_keepalives_total",
			Help: "Total number of acknowledged keepalives",
		}),

		// Routing metrics
		StatusUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_status_updates_total",
			Help: "Total number of station STATUS updates",
		}),
		StatusFanout: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_status_fanout_total",
			Help: "Total number of STATUS datagrams relayed to clients",
		}),
		CommandsForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_commands_forwarded_total",
			Help: "Total number of commands forwarded to stations",
		}),
		CommandsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_commands_rejected_total",
			Help: "Total number of commands rejected with CMD_FAIL",
		}),
		UnknownKinds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "broker_unknown_kinds_total",
			Help: "Total number of datagrams with unrecognized message kinds",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "broker_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "broker_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "broker_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordPacketReceived increments the packets received counter
func (m *Metrics) RecordPacketReceived() {
	m.PacketsReceived.Inc()
}

// RecordPacketProcessed increments the packets processed counter
func (m *Metrics) RecordPacketProcessed() {
	m.PacketsProcessed.Inc()
}

// RecordParseError increments the parse errors counter
func (m *Metrics) RecordParseError() {
	m.ParseErrors.Inc()
}

// SetQueueSize sets the current queue size
func (m *Metrics) SetQueueSize(size int) {
	m.QueueSize.Set(float64(size))
}

// RecordSendError increments the send errors counter
func (m *Metrics) RecordSendError() {
	m.SendErrors.Inc()
}

// RecordLogin records a login attempt outcome
func (m *Metrics) RecordLogin(success bool) {
	if success {
		m.LoginSuccesses.Inc()
	} else {
		m.LoginFailures.Inc()
	}
}

// SetActiveSessions sets the active session gauge
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordSessionsEvicted adds to the evicted sessions counter
func (m *Metrics) RecordSessionsEvicted(count uint64) {
	m.SessionsEvicted.Add(float64(count))
}

// RecordKeepalive increments the keepalive counter
func (m *Metrics) RecordKeepalive() {
	m.Keepalives.Inc()
}

// RecordStatusUpdate records a station STATUS update and how many clients
// it was fanned out to
func (m *Metrics) RecordStatusUpdate(fanout int) {
	m.StatusUpdates.Inc()
	m.StatusFanout.Add(float64(fanout))
}

// RecordCommandForwarded increments the forwarded commands counter
func (m *Metrics) RecordCommandForwarded() {
	m.CommandsForwarded.Inc()
}

// RecordCommandRejected increments the rejected commands counter
func (m *Metrics) RecordCommandRejected() {
	m.CommandsRejected.Inc()
}

// RecordUnknownKind increments the unknown kind counter
func (m *Metrics) RecordUnknownKind() {
	m.UnknownKinds.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
