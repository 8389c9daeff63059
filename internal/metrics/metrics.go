// Package metrics holds the Prometheus collectors of the API.
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

// Metrics is registered against its own registry so tests can create as many
// as they need.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ordersPlaced    *prometheus.CounterVec
	orderValue      prometheus.Histogram
	statusChanges   *prometheus.CounterVec
	checkoutErrors  *prometheus.CounterVec
	cartUnsynced    prometheus.Counter
	feedSubscribers prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aura",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aura",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ordersPlaced: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aura",
			Name:      "orders_placed_total",
			Help:      "Orders placed by fulfillment method.",
		}, []string{"method"}),
		orderValue: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aura",
			Name:      "order_value_cents",
			Help:      "Total amount of placed orders in cents.",
			Buckets:   prometheus.ExponentialBuckets(500, 2, 8),
		}),
		statusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aura",
			Name:      "order_status_changes_total",
			Help:      "Order status transitions by target status.",
		}, []string{"status"}),
		checkoutErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aura",
			Name:      "checkout_errors_total",
			Help:      "Rejected or failed checkouts by kind.",
		}, []string{"kind"}),
		cartUnsynced: f.NewCounter(prometheus.CounterOpts{
			Namespace: "aura",
			Name:      "cart_unsynced_writes_total",
			Help:      "Cart mutations that could not be persisted.",
		}),
		feedSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "aura",
			Name:      "feed_subscribers",
			Help:      "Open live order subscriptions.",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route string, code int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) OrderPlaced(method string, totalCents int64) {
	m.ordersPlaced.WithLabelValues(method).Inc()
	m.orderValue.Observe(float64(totalCents))
}

func (m *Metrics) StatusChanged(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) CheckoutFailed(kind string) {
	m.checkoutErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) CartUnsynced() {
	m.cartUnsynced.Inc()
}

func (m *Metrics) SubscriberAdded() {
	m.feedSubscribers.Inc()
}

func (m *Metrics) SubscriberRemoved() {
	m.feedSubscribers.Dec()
}
