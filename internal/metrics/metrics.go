// Package metrics 提供 HTTP 请求的 Prometheus 指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics HTTP 指标
type HTTPMetrics struct {
	gatherer        prometheus.Gatherer
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authRejections  *prometheus.CounterVec
}

// New 创建指标并注册到独立的 Registry
func New() *HTTPMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(registry, registry)
}

// NewWithRegistry 使用指定的注册器创建指标
func NewWithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *HTTPMetrics {
	factory := promauto.With(registerer)

	return &HTTPMetrics{
		gatherer: gatherer,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		authRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_auth_rejections_total",
				Help: "Total number of requests rejected by the auth gate",
			},
			[]string{"reason"},
		),
	}
}

// ObserveRequest 记录一次请求
func (m *HTTPMetrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveAuthRejection 记录一次鉴权拒绝
func (m *HTTPMetrics) ObserveAuthRejection(reason string) {
	m.authRejections.WithLabelValues(reason).Inc()
}

// Handler 返回 /metrics 处理器
func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
