package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Simulation metrics
	simulationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_sim_simulations_total",
			Help: "Total number of simulations by outcome",
		},
		[]string{"outcome"},
	)

	simulationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "grid_sim_simulation_duration_seconds",
			Help:    "Wall time of a single simulation",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
	)

	simulatedTrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_sim_trades_total",
			Help: "Total number of simulated trades",
		},
		[]string{"side"},
	)

	sweepConfigs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grid_sim_sweep_configs_total",
			Help: "Total number of configurations evaluated by sweeps",
		},
	)

	// Market data metrics
	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_sim_price_cache_requests_total",
			Help: "Price cache lookups by result",
		},
		[]string{"result"},
	)

	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grid_sim_price_fetch_duration_seconds",
			Help:    "Duration of price series fetches from a provider",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// HTTP metrics
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_sim_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grid_sim_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grid_sim_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(simulationsTotal)
	prometheus.MustRegister(simulationDuration)
	prometheus.MustRegister(simulatedTrades)
	prometheus.MustRegister(sweepConfigs)
	prometheus.MustRegister(cacheRequests)
	prometheus.MustRegister(fetchDuration)
	prometheus.MustRegister(httpRequests)
	prometheus.MustRegister(httpDuration)
	prometheus.MustRegister(errorsTotal)
}

// Handler serves the Prometheus metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSimulation records one finished simulation
func RecordSimulation(duration time.Duration, buys, sells int, err error) {
	if err != nil {
		simulationsTotal.WithLabelValues("error").Inc()
		return
	}
	simulationsTotal.WithLabelValues("ok").Inc()
	simulationDuration.Observe(duration.Seconds())
	simulatedTrades.WithLabelValues("buy").Add(float64(buys))
	simulatedTrades.WithLabelValues("sell").Add(float64(sells))
}

// RecordSweep records the number of configurations in a finished sweep
func RecordSweep(configs int) {
	sweepConfigs.Add(float64(configs))
}

// RecordCacheHit records a price cache hit
func RecordCacheHit() {
	cacheRequests.WithLabelValues("hit").Inc()
}

// RecordCacheMiss records a price cache miss
func RecordCacheMiss() {
	cacheRequests.WithLabelValues("miss").Inc()
}

// ObserveFetch records how long a provider took to return a series
func ObserveFetch(provider string, duration time.Duration) {
	fetchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveHTTPRequest records one served request
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
