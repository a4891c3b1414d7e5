package server

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	requests *prometheus.CounterVec
	items    prometheus.Histogram
	pages    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoicing",
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		items: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "invoicing",
			Name:      "document_items",
			Help:      "Number of line items per computed document.",
			Buckets:   []float64{0, 1, 5, 10, 17, 47, 67, 100, 250},
		}),
		pages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "invoicing",
			Name:      "document_pages",
			Help:      "Number of pages per planned document.",
			Buckets:   prometheus.LinearBuckets(1, 1, 5),
		}),
	}
	reg.MustRegister(m.requests, m.items, m.pages)
	return m
}
