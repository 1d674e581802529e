// Package metrics defines and registers all custom Prometheus metrics for the
// pulse survey API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto; the /metrics endpoint serves that registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pulse"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "throttled" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "success", "conflict", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// AuthzDenialsTotal counts requests rejected by the auth or RBAC gate.
// Label:
//   - reason: "unauthenticated" or "forbidden"
var AuthzDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_denials_total",
		Help:      "Total number of requests denied by authentication or role checks.",
	},
	[]string{"reason"},
)

// ── Survey metrics ────────────────────────────────────────────────────────────

// SurveysSubmittedTotal counts stored survey responses.
var SurveysSubmittedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "surveys_submitted_total",
		Help:      "Total number of survey responses stored.",
	},
)

// SurveysExportedTotal counts completed exports.
// Label:
//   - format: "json" or "csv"
var SurveysExportedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "surveys_exported_total",
		Help:      "Total number of survey exports served, by format.",
	},
	[]string{"format"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events written by the audit workers.
// Label:
//   - action: the audit action (e.g. "login_failed")
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events recorded, by action.",
	},
	[]string{"action"},
)

// AuditDroppedTotal counts audit events discarded because a worker queue was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit events dropped on a full queue.",
	},
)

// AuditQueueDepth tracks the number of events waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of events pending in each audit worker channel.",
	},
	[]string{"worker_id"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestDuration measures request latency.
// Labels:
//   - method: HTTP method
//   - route: the matched route template (e.g. "/surveys/all")
//   - code: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by method, route and status code.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method", "route", "code"},
)

// Middleware observes HTTPRequestDuration for every request. An error that
// reached here unrendered is rendered first so the recorded code matches what
// the client received. The route label uses the registered path template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil && !c.Response().Committed {
				c.Error(err)
			}

			code := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(code)).
				Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
