// metrics — Prometheus-метрики аутентификации и HTTP-слоя.
// Все методы безопасны для nil-получателя: без метрик сервис работает как обычно.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard"

type Metrics struct {
	logins       *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	revocations  prometheus.Counter
	webSessions  *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New регистрирует коллекторы в reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_logins_total",
			Help:      "API password logins by result.",
		}, []string{"result"}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_refreshes_total",
			Help:      "Token refreshes by result.",
		}, []string{"result"}),
		revocations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_revocations_total",
			Help:      "Token pairs revoked on logout.",
		}),
		webSessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "web_sessions_total",
			Help:      "Cookie sessions established by login method.",
		}, []string{"method"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Revocation() {
	if m == nil {
		return
	}
	m.revocations.Inc()
}

func (m *Metrics) WebSession(method string) {
	if m == nil {
		return
	}
	m.webSessions.WithLabelValues(method).Inc()
}

// HTTPRequest учитывает завершённый HTTP-запрос.
// route — шаблон маршрута chi, не сырой путь.
func (m *Metrics) HTTPRequest(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(dur.Seconds())
}
