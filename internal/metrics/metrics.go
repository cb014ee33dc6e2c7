// Package metrics registers the prometheus collectors shared by the client, executor, and price feed.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ContractCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "contract_calls_total", Help: "Read-only contract calls issued"},
		[]string{"method"},
	)
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "transactions_total", Help: "Signed transactions sent, by method and outcome"},
		[]string{"method", "outcome"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders handled by the executor"},
		[]string{"mode", "status"},
	)
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of price ticks ingested"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(ContractCalls, TransactionsTotal, OrdersTotal, TicksTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
