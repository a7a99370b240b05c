package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "railsahayak"

var (
	StatusLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "train_status_lookups_total", Help: "Train status lookups by source"},
		[]string{"source"},
	)
	StatusFallbacks = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "train_status_live_fallbacks_total", Help: "Live lookups that fell back to simulation"})
	StatusStreams   = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "train_status_streams", Help: "Open live status streams"})

	CartRejections = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "cart_rejections_total", Help: "Items refused because prep time exceeds the halt window"})
	OrdersTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "orders_total", Help: "Completed checkouts"})
	OrderValue     = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_value_rupees",
		Help:      "Final order totals",
		Buckets:   []float64{100, 200, 400, 800, 1600, 3200},
	})
	OrderSinkErrors = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "order_sink_errors_total", Help: "Failed order record writes"})
	PaymentErrors   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "payment_errors_total", Help: "Failed payment authorisations or captures"})

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "service_bookings_total", Help: "Station service bookings by type"},
		[]string{"type"},
	)

	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "community_reports_total", Help: "Community reports by type"},
		[]string{"type"},
	)
	ClassifierFallbacks = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "classifier_fallbacks_total", Help: "Reports tagged with the default classification"})
	FeedSubscribers     = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "community_feed_subscribers", Help: "Connected feed websockets"})

	ChatRequests = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "assistant_requests_total", Help: "Assistant messages handled"})
	ChatErrors   = promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "assistant_errors_total", Help: "Assistant calls answered with the apology"})

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "logins_total", Help: "Logins by provider and outcome"},
		[]string{"provider", "outcome"},
	)
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "active_sessions", Help: "Sessions held in memory"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
