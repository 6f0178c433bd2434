package server

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Metrics tracks server runtime statistics.
// All counters use atomic operations for lock-free concurrent access.
type Metrics struct {
	startTime time.Time

	// Connection counters
	TotalConnections  atomic.Int64 // lifetime WebSocket connections accepted
	ActiveConnections atomic.Int64 // current live connections
	SuccessfulAuths   atomic.Int64 // successful authentication attempts
	FailedAuths       atomic.Int64 // failed authentication attempts
	TotalDisconnects  atomic.Int64 // total client disconnects (clean + unclean)

	// Relay counters
	MessagesPersisted atomic.Int64 // directed messages appended to the log
	MessagesRelayed   atomic.Int64 // directed messages with at least one live delivery
	DeliveriesSent    atomic.Int64 // per-session delivery envelopes queued
	FramesDropped     atomic.Int64 // outbound frames dropped (full queue or closing session)
	ProtocolErrors    atomic.Int64 // inbound frames rejected (bad json/type/fields/auth)
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
	}
}

// MetricsSnapshot is a point-in-time view of all metrics as a
// serializable struct.
type MetricsSnapshot struct {
	Uptime        string `json:"uptime"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	ActiveConnections int64 `json:"active_connections"`
	TotalConnections  int64 `json:"total_connections"`
	SuccessfulAuths   int64 `json:"successful_auths"`
	FailedAuths       int64 `json:"failed_auths"`
	TotalDisconnects  int64 `json:"total_disconnects"`

	MessagesPersisted int64 `json:"messages_persisted"`
	MessagesRelayed   int64 `json:"messages_relayed"`
	DeliveriesSent    int64 `json:"deliveries_sent"`
	FramesDropped     int64 `json:"frames_dropped"`
	ProtocolErrors    int64 `json:"protocol_errors"`
}

// Snapshot returns a read-consistent snapshot of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	uptime := time.Since(m.startTime)
	return MetricsSnapshot{
		Uptime:            uptime.Truncate(time.Second).String(),
		UptimeSeconds:     int64(uptime.Seconds()),
		ActiveConnections: m.ActiveConnections.Load(),
		TotalConnections:  m.TotalConnections.Load(),
		SuccessfulAuths:   m.SuccessfulAuths.Load(),
		FailedAuths:       m.FailedAuths.Load(),
		TotalDisconnects:  m.TotalDisconnects.Load(),
		MessagesPersisted: m.MessagesPersisted.Load(),
		MessagesRelayed:   m.MessagesRelayed.Load(),
		DeliveriesSent:    m.DeliveriesSent.Load(),
		FramesDropped:     m.FramesDropped.Load(),
		ProtocolErrors:    m.ProtocolErrors.Load(),
	}
}

// JSON returns the metrics snapshot as a JSON string.
func (m *Metrics) JSON() string {
	data, err := json.MarshalIndent(m.Snapshot(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// LogSummary writes a periodic metrics summary to the logger.
func (m *Metrics) LogSummary() {
	s := m.Snapshot()
	slog.Info("metrics",
		"uptime", s.Uptime,
		"connections", s.ActiveConnections,
		"total_connections", s.TotalConnections,
		"messages_persisted", s.MessagesPersisted,
		"messages_relayed", s.MessagesRelayed,
		"frames_dropped", s.FramesDropped,
		"protocol_errors", s.ProtocolErrors,
	)
}

// StartPeriodicLog starts a goroutine that logs metrics every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
