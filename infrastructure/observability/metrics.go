package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	// JobsProcessed counts award jobs that reached a terminal outcome
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcoin_award_jobs_processed_total",
		Help: "Total number of award jobs processed, by outcome",
	}, []string{"outcome"})

	// JobsClaimed counts jobs claimed per worker poll
	JobsClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatcoin_award_jobs_claimed_total",
		Help: "Total number of award jobs claimed by workers",
	})

	// JobProcessingDuration observes per-job processing latency
	JobProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatcoin_award_job_duration_seconds",
		Help:    "Time spent processing a single award job",
		Buckets: prometheus.DefBuckets,
	})

	// CoinsAwarded counts total coins credited through the reward pipeline
	CoinsAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatcoin_coins_awarded_total",
		Help: "Total coins credited by the reward worker",
	})

	// MessagesFiltered counts chat messages rejected by the bot filter
	MessagesFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatcoin_messages_filtered_total",
		Help: "Total chat messages rejected by the bot filter, by rule",
	}, []string{"rule"})

	// TicketsPurchased counts lottery tickets sold
	TicketsPurchased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatcoin_tickets_purchased_total",
		Help: "Total lottery tickets purchased",
	})

	// DrawsCompleted counts completed lottery draws
	DrawsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatcoin_draws_completed_total",
		Help: "Total lottery draws completed",
	})

	// BreakerState exposes the balance read circuit breaker state,
	// 0 closed and 1 open
	BreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatcoin_balance_breaker_open",
		Help: "Whether the balance read circuit breaker is open",
	})

	// DegradedReads counts balance reads served from the degraded path
	DegradedReads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatcoin_balance_degraded_reads_total",
		Help: "Total balance reads answered while the store was unavailable",
	})
)

// StartMetricsServer serves the Prometheus scrape endpoint on addr.
// It blocks until the server exits.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.WithField("addr", addr).Info("Starting metrics server")
	return srv.ListenAndServe()
}
