package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginSuccess  = "success"
	LoginFailed   = "failed"
	LoginRejected = "rejected" // refused before any datastore lookup
)

// Registration outcomes.
const (
	RegistrationCreated   = "created"
	RegistrationForbidden = "forbidden"
	RegistrationInvalid   = "invalid"
	RegistrationConflict  = "conflict"
	RegistrationError     = "error"
)

// Metrics holds the collectors exposed on /metrics.
type Metrics struct {
	gatherer prometheus.Gatherer

	LoginAttempts   *prometheus.CounterVec
	Registrations   *prometheus.CounterVec
	UsersCreated    prometheus.Counter
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hospital_auth_login_attempts_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hospital_auth_registrations_total",
				Help: "Total number of hospital registrations by outcome",
			},
			[]string{"outcome"},
		),
		UsersCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hospital_auth_users_created_total",
				Help: "Total number of users created by hospital admins",
			},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hospital_auth_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hospital_auth_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	reg.MustRegister(m.LoginAttempts, m.Registrations, m.UsersCreated, m.RequestCounter, m.RequestDuration)
	return m
}

func (m *Metrics) RecordLogin(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordUserCreated() {
	m.UsersCreated.Inc()
}

// Middleware records request count and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
