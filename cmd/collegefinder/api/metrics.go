package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the search counters exposed on /metrics.
type Metrics struct {
	searches *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collegefinder",
			Name:      "searches_total",
			Help:      "Searches served, by HTTP status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "collegefinder",
			Name:      "search_duration_seconds",
			Help:      "Time spent answering a search, upstream call included.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.searches,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) observe(status int, elapsed time.Duration) {
	m.searches.WithLabelValues(strconv.Itoa(status)).Inc()
	m.duration.Observe(elapsed.Seconds())
}
