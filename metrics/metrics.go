package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caturnawa", Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"method", "status"})
	HTTPDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "caturnawa", Name: "http_request_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	})
	ScoreSubmissions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "caturnawa", Name: "score_submissions_total", Help: "Committed scoresheets",
	})
	StandingsRecomputes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "caturnawa", Name: "standings_recomputes_total", Help: "Full standings recomputations",
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, ScoreSubmissions, StandingsRecomputes)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveRequest(d time.Duration) { HTTPDuration.Observe(d.Seconds()) }
