package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrdersProcessed counts accepted orders by side (buy/sell)
var OrdersProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pincex_match_orders_total",
		Help: "Total number of orders accepted by the matching engine",
	},
	[]string{"side"},
)

// OrdersRejected counts refused orders by reason (invalid_order,
// invalid_price, book_full)
var OrdersRejected = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pincex_match_orders_rejected_total",
		Help: "Total number of orders refused by the matching engine",
	},
	[]string{"reason"},
)

// TradesExecuted counts trades produced by matching
var TradesExecuted = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "pincex_match_trades_total",
		Help: "Total number of trades executed",
	},
)

// CancelsProcessed counts cancel requests by result (ok/miss)
var CancelsProcessed = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pincex_match_cancels_total",
		Help: "Total number of cancel requests processed",
	},
	[]string{"result"},
)

// OrderLatency records latency distribution for order processing
var OrderLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "pincex_match_order_latency_seconds",
		Help:    "Latency in seconds to process individual orders",
		Buckets: prometheus.DefBuckets,
	},
)

// Book state gauges, refreshed after every mutating call
var (
	RestingOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pincex_match_resting_orders",
			Help: "Number of open orders resting on the book",
		},
	)

	BestBid = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pincex_match_best_bid",
			Help: "Best bid price in ticks, 0 when the bid side is empty",
		},
	)

	BestAsk = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pincex_match_best_ask",
			Help: "Best ask price in ticks, 0 when the ask side is empty",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersProcessed, OrdersRejected, TradesExecuted, CancelsProcessed, OrderLatency)
	prometheus.MustRegister(RestingOrders, BestBid, BestAsk)
}
