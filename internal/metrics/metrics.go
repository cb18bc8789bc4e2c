// metrics описывает Prometheus-метрики сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bodytrack_auth"

// Metrics — набор метрик сервиса.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AuthEventsTotal     *prometheus.CounterVec
	RefreshTokensPurged prometheus.Counter
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Authentication events by type and outcome",
			},
			[]string{"event", "outcome"},
		),
		RefreshTokensPurged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_tokens_purged_total",
				Help:      "Expired refresh token records removed by the janitor",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthEventsTotal,
		m.RefreshTokensPurged,
	)

	return m
}

// AuthEvent учитывает событие аутентификации.
func (m *Metrics) AuthEvent(event, outcome string) {
	m.AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// Purged учитывает удалённые просроченные записи реестра.
func (m *Metrics) Purged(n int64) {
	if n > 0 {
		m.RefreshTokensPurged.Add(float64(n))
	}
}
