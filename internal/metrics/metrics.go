package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP and ledger collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	sessionsLogged     *prometheus.CounterVec
	packsExhausted     prometheus.Counter
	allocationFailures *prometheus.CounterVec
	purchasesCreated   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		sessionsLogged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gym_sessions_logged_total",
				Help: "Sessions recorded against a pack",
			},
			[]string{"duration"},
		),
		packsExhausted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gym_packs_exhausted_total",
				Help: "Packs whose last session was consumed",
			},
		),
		allocationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gym_allocation_failures_total",
				Help: "Session allocations that found no usable pack",
			},
			[]string{"reason"},
		),
		purchasesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gym_purchases_created_total",
				Help: "Packs purchased",
			},
			[]string{"num_people"},
		),
	}

	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.sessionsLogged,
		m.packsExhausted,
		m.allocationFailures,
		m.purchasesCreated,
	)
	return m
}

func (m *Metrics) SessionLogged(durationMinutes int, exhausted bool) {
	if m == nil {
		return
	}
	m.sessionsLogged.WithLabelValues(strconv.Itoa(durationMinutes)).Inc()
	if exhausted {
		m.packsExhausted.Inc()
	}
}

func (m *Metrics) AllocationFailed(reason string) {
	if m == nil {
		return
	}
	m.allocationFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) PurchaseCreated(numPeople int) {
	if m == nil {
		return
	}
	m.purchasesCreated.WithLabelValues(strconv.Itoa(numPeople)).Inc()
}

// Middleware records request count and latency per route
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := strconv.Itoa(c.Response().Status)
			m.requests.WithLabelValues(c.Request().Method, c.Path(), status).Inc()
			m.requestDuration.WithLabelValues(c.Request().Method, c.Path(), status).
				Observe(time.Since(start).Seconds())

			return nil
		}
	}
}

// Handler exposes the collectors registered on g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
