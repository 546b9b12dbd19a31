package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Checkouts *prometheus.CounterVec
}

func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	m := &ServerMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "HTTP requests by route and status.",
			ConstLabels: prometheus.Labels{"service": service},
		}, []string{"route", "method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_ms",
			Help:        "HTTP request latency in milliseconds.",
			ConstLabels: prometheus.Labels{"service": service},
			Buckets:     []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"route", "method"}),
		Checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "checkouts_total",
			Help:        "Checkout attempts by outcome.",
			ConstLabels: prometheus.Labels{"service": service},
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.Requests, m.LatencyMS, m.Checkouts)
	return m
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
