package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/FranksOps/ducksearch/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ducksearch_searches_total",
			Help: "Total number of search calls executed",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ducksearch_search_duration_seconds",
			Help:    "Duration of search calls in seconds, including retries",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	ResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ducksearch_results_total",
			Help: "Total result records extracted across all searches",
		},
	)
)

// RecordSearch updates the metrics given a completed SearchRecord.
func RecordSearch(rec *storage.SearchRecord) {
	if rec == nil {
		return
	}

	outcome := "ok"
	switch {
	case rec.Challenged:
		outcome = "challenge"
	case rec.Error != "":
		outcome = "error"
	}

	SearchesTotal.WithLabelValues(outcome).Inc()
	SearchDuration.WithLabelValues(outcome).Observe(rec.Duration.Seconds())
	ResultsTotal.Add(float64(rec.ResultCount))
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
