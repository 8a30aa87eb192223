package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchCalls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bskyscraper_fetch_calls_total",
		Help: "Total timeline fetch attempts",
	})
	FetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bskyscraper_fetch_failures_total",
		Help: "Failed timeline fetches by error type",
	}, []string{"type"})
	PostsCollected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bskyscraper_posts_collected_total",
		Help: "Post records accumulated",
	})
	RunsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bskyscraper_runs_total",
		Help: "Completed collection runs by stop reason",
	}, []string{"stop"})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bskyscraper_run_duration_seconds",
		Help:    "Collection run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	APIRequests = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bskyscraper_api_request_duration_seconds",
		Help:    "XRPC request latency by method and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"nsid", "status"})
)

func init() {
	prometheus.MustRegister(FetchCalls, FetchFailures, PostsCollected, RunsCompleted, RunDuration, APIRequests)
}

// Handler returns the mux serving /metrics and /health
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// StartServer serves metrics on addr (e.g. ":9090") in the background.
// It returns nil when addr is empty. errc receives the listener error, if any.
func StartServer(addr string, errc chan<- error) *http.Server {
	if addr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && errc != nil {
			errc <- err
		}
	}()
	return srv
}

// ObserveRunDuration records how long a run took
func ObserveRunDuration(start time.Time) {
	RunDuration.Observe(time.Since(start).Seconds())
}

// ObserveRequest records one XRPC request. status 0 means no response.
func ObserveRequest(nsid string, status int, elapsed time.Duration) {
	APIRequests.WithLabelValues(nsid, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// IncFetchFailure counts a failed timeline fetch
func IncFetchFailure(errorType string) { FetchFailures.WithLabelValues(errorType).Inc() }

// IncRun counts a finished run
func IncRun(stop string) { RunsCompleted.WithLabelValues(stop).Inc() }
