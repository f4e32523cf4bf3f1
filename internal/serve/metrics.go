package serve

import (
	"geoblog/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

type Metrics struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	geo      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoblog",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geoblog",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		geo: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoblog",
			Name:      "geo_lookups_total",
			Help:      "Geo lookups by result.",
		}, []string{"result"}),
	}
	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.duration,
		m.geo,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// CountGeo wraps a resolver so every lookup is counted as a hit or a miss.
func (m *Metrics) CountGeo(g service.GeoResolver) service.GeoResolver {
	return countingResolver{next: g, m: m}
}

type countingResolver struct {
	next service.GeoResolver
	m    *Metrics
}

func (c countingResolver) ResolveCountry(ip string) (string, bool) {
	cc, ok := c.next.ResolveCountry(ip)
	if ok {
		c.m.geo.WithLabelValues("hit").Inc()
	} else {
		c.m.geo.WithLabelValues("miss").Inc()
	}
	return cc, ok
}
