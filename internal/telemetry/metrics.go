package telemetry

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for ScansTotal.
const (
	OutcomeOK          = "ok"
	OutcomeNoCandidate = "no_candidate"
	OutcomeNotObject   = "not_object"
	OutcomeNoFlags     = "no_flags"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// ScansTotal counts scan attempts by parse mode and outcome. Failed
	// scans carry mode "none" since no tier produced pairs.
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scans_total",
			Help: "Total scans by parse mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	// ScanInputKeys tracks how many pairs each scan parsed.
	ScanInputKeys = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scan_input_keys",
		Help:    "Parsed key/value pairs per scan",
		Buckets: prometheus.ExponentialBuckets(1, 4, 6),
	})

	// ScanDuration measures time spent in the scan pipeline itself,
	// excluding transport and persistence.
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scan_duration_seconds",
		Help:    "Scan pipeline duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
	})

	// HistoryQueueDrops counts scan records lost to a full archive queue.
	HistoryQueueDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "history_queue_drops_total",
		Help: "Scan records dropped because the history queue was full",
	})
)

func Init() {
	prometheus.MustRegister(httpReqs, httpDur, ScansTotal, ScanInputKeys, ScanDuration, HistoryQueueDrops)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// get route pattern if available
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
