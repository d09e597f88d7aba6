package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "konsole_http_requests_total",
			Help: "Total number of console HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "konsole_http_request_duration_seconds",
			Help:    "Console HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "konsole_http_requests_in_flight",
		Help: "Current number of console HTTP requests being processed.",
	})

	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "konsole_upstream_requests_total",
			Help: "Total number of fleet API requests by method, route pattern, and status code (0 = no response).",
		},
		[]string{"method", "route", "status"},
	)
)

// ResolverCaches is the subset of resolver.Resolver needed to report cache
// sizes.
type ResolverCaches interface {
	CacheSizes() (equipment, customers int)
}

// resolverCollector is a custom Prometheus collector that reads the resolver
// caches on each scrape.
type resolverCollector struct {
	resolver    ResolverCaches
	entriesDesc *prometheus.Desc
}

func (c *resolverCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entriesDesc
}

func (c *resolverCollector) Collect(ch chan<- prometheus.Metric) {
	equipment, customers := c.resolver.CacheSizes()
	ch <- prometheus.MustNewConstMetric(c.entriesDesc, prometheus.GaugeValue, float64(equipment), "equipment")
	ch <- prometheus.MustNewConstMetric(c.entriesDesc, prometheus.GaugeValue, float64(customers), "customer")
}

// Register registers all metrics with the default Prometheus registry.
// Call once at startup after the resolver is initialised.
func Register(resolver ResolverCaches) {
	prometheus.MustRegister(
		// Standard Go runtime and process metrics
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		// HTTP service metrics
		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,

		// Upstream fleet API metrics
		upstreamRequestsTotal,

		// Application metrics
		&resolverCollector{
			resolver: resolver,
			entriesDesc: prometheus.NewDesc(
				"konsole_resolver_cache_entries",
				"Number of memoized name lookups, partitioned by kind.",
				[]string{"kind"},
				nil,
			),
		},
	)
}

// ObserveUpstream records one fleet API request. Wire it to
// fleetapi.Client.Observer.
func ObserveUpstream(method, route string, status int) {
	upstreamRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an http.Handler to record HTTP metrics.
// pattern should be the route pattern string (e.g. "/rentals/{id}")
// so the path label has bounded cardinality.
func Middleware(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}
