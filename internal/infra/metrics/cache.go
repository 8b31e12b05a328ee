package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheOpsTotal) }

var cacheOpsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "status_cache_ops_total",
		Help: "Status cache operations by result.",
	},
	[]string{"op", "result"}, // op: 'get'|'set', result: 'hit'|'miss'|'error'|'ok'
)

func IncCacheOp(op, result string) {
	cacheOpsTotal.WithLabelValues(norm(op), norm(result)).Inc()
}
