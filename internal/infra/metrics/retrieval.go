package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(retrievalRequestsTotal, retrievalPassages) }

var retrievalRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "retrieval_requests_total",
		Help: "Search backend calls by outcome.",
	},
	[]string{"outcome"}, // 'ok', 'error', 'empty'
)

var retrievalPassages = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "retrieval_passages_returned",
		Help:    "Passages returned per retrieval call.",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
	},
)

func IncRetrieval(outcome string) {
	retrievalRequestsTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveRetrievalPassages(n int) { retrievalPassages.Observe(float64(n)) }
