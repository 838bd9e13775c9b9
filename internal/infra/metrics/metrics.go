// Package metrics provides Prometheus metrics for focusera: focus sessions,
// unlocks, notifications and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Sessions ───────────────────────────────────────────────────────────────

// SessionsCompleted counts recorded focus sessions.
var SessionsCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "focusera",
	Name:      "sessions_completed_total",
	Help:      "Total recorded focus sessions.",
})

// SessionsRejected counts sessions refused before any write.
var SessionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusera",
	Name:      "sessions_rejected_total",
	Help:      "Focus sessions rejected, by reason.",
}, []string{"reason"})

// FocusSeconds accumulates focused seconds across all users.
var FocusSeconds = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "focusera",
	Name:      "focus_seconds_total",
	Help:      "Total focused seconds recorded.",
})

// SessionLength tracks the distribution of session lengths.
var SessionLength = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "focusera",
	Name:      "session_length_seconds",
	Help:      "Length of recorded focus sessions.",
	Buckets:   []float64{60, 300, 900, 1500, 3000, 5400, 10800},
})

// ─── Progression ────────────────────────────────────────────────────────────

// BadgesUnlocked counts badge unlocks by badge id.
var BadgesUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusera",
	Name:      "badges_unlocked_total",
	Help:      "Badge unlocks by badge.",
}, []string{"badge"})

// EraTransitions counts users entering an era.
var EraTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusera",
	Name:      "era_transitions_total",
	Help:      "Era entries by destination era.",
}, []string{"era"})

// ─── Notifications ──────────────────────────────────────────────────────────

// Notifications counts notification decisions by type and outcome
// (sent, capped, quiet, failed).
var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusera",
	Name:      "notifications_total",
	Help:      "Notification decisions by type and outcome.",
}, []string{"type", "outcome"})

// PushDeliveries counts push outcomes after retries (sent, retried,
// exhausted).
var PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusera",
	Name:      "push_deliveries_total",
	Help:      "Push delivery attempts by outcome.",
}, []string{"outcome"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts API requests by route pattern, method and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusera",
	Name:      "http_requests_total",
	Help:      "Total HTTP requests.",
}, []string{"route", "method", "status"})

// HTTPDuration tracks API latency by route pattern and method.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "focusera",
	Name:      "http_request_duration_seconds",
	Help:      "Duration of HTTP requests.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "method"})

// AuthRejections counts requests refused by the auth layer.
var AuthRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "focusera",
	Name:      "auth_rejections_total",
	Help:      "Unauthorized requests by reason.",
}, []string{"reason"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthStatus tracks component health (1 = healthy, 0 = unhealthy).
var HealthStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "focusera",
	Name:      "health_status",
	Help:      "Component health status (1=healthy, 0=unhealthy).",
}, []string{"component"})
