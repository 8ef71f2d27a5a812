package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/ErlanBelekov/shortly/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Link registry

	LinksCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shortly",
		Name:      "links_created_total",
		Help:      "Links persisted by create-or-get.",
	})

	LinkDedupHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shortly",
		Name:      "link_dedup_hits_total",
		Help:      "Submissions answered with an existing link, by how the duplicate was found.",
	}, []string{"via"})

	LinkResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shortly",
		Name:      "link_resolutions_total",
		Help:      "Code resolutions, by outcome.",
	}, []string{"outcome"})

	ClickAppendFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shortly",
		Name:      "click_append_failures_total",
		Help:      "Resolutions whose visit was counted but whose click row could not be written.",
	})

	TitleFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shortly",
		Name:      "title_fetch_duration_seconds",
		Help:      "Time spent fetching a page title for a new link.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"outcome"})

	// Session authority

	SessionsIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shortly",
		Name:      "sessions_issued_total",
		Help:      "Tokens issued, by the flow that issued them.",
	}, []string{"via"})

	SessionValidationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shortly",
		Name:      "session_validations_total",
		Help:      "Session gate decisions, by result.",
	}, []string{"result"})

	TokensRevokedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shortly",
		Name:      "tokens_revoked_total",
		Help:      "Token rows deleted by logout.",
	})

	// Janitor

	TokensPurgedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shortly",
		Name:      "tokens_purged_total",
		Help:      "Expired token rows deleted by the janitor.",
	})

	JanitorRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shortly",
		Name:      "janitor_run_duration_seconds",
		Help:      "Time taken for one token purge.",
		Buckets:   prometheus.DefBuckets,
	})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shortly",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shortly",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		LinksCreatedTotal,
		LinkDedupHitsTotal,
		LinkResolutionsTotal,
		ClickAppendFailuresTotal,
		TitleFetchDuration,
		SessionsIssuedTotal,
		SessionValidationsTotal,
		TokensRevokedTotal,
		TokensPurgedTotal,
		JanitorRunDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves /metrics plus liveness and readiness probes.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
