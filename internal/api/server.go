// Package api exposes the scan pipeline and scan history over HTTP.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/flagops/flagscrub/internal/history"
	"github.com/flagops/flagscrub/internal/report"
	"github.com/flagops/flagscrub/internal/ruleset"
	"github.com/flagops/flagscrub/internal/scan"
	"github.com/flagops/flagscrub/internal/store"
	"github.com/flagops/flagscrub/internal/telemetry"
)

const defaultMaxBodyBytes = 1 << 20

type Server struct {
	pipeline *scan.Pipeline
	rules    *ruleset.Ruleset
	store    store.Store
	history  *history.Recorder

	adminAPIKey  string
	clientAPIKey string
	maxBodyBytes int64
	rateLimit    int
}

// Options carries the handler knobs taken from configuration.
type Options struct {
	AdminAPIKey    string
	ClientAPIKey   string // empty leaves POST /v1/scan open
	MaxBodyBytes   int64
	RateLimitPerIP int // requests per minute per IP, 0 disables
}

// NewServer wires the pipeline, rule set, store, and history recorder
// behind the HTTP API. rec may be nil when scans should not be archived.
func NewServer(p *scan.Pipeline, rs *ruleset.Ruleset, st store.Store, rec *history.Recorder, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{
		pipeline:     p,
		rules:        rs,
		store:        st,
		history:      rec,
		adminAPIKey:  opts.AdminAPIKey,
		clientAPIKey: opts.ClientAPIKey,
		maxBodyBytes: opts.MaxBodyBytes,
		rateLimit:    opts.RateLimitPerIP,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	r.Use(telemetry.Middleware)
	if s.rateLimit > 0 {
		r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
	}

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public: active rule set (ETag)
	r.Get("/v1/ruleset", s.handleRuleset)

	// client: submit a dump for scrubbing
	r.Post("/v1/scan", s.authClient(s.handleScan))

	// admin (protected): scan history
	r.Get("/v1/scans", s.authAdmin(s.handleListScans))
	r.Get("/v1/scans/{id}", s.authAdmin(s.handleGetScan))
	r.Get("/v1/scans/{id}/output", s.authAdmin(s.handleGetScanOutput))

	return r
}

// handleRuleset serves the rule table clients are scrubbed against. Rules
// are immutable for the life of the process, so the ETag only changes
// across restarts.
func (s *Server) handleRuleset(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(s.rules)
	if err != nil {
		InternalError(w, r, "failed to serialize ruleset")
		return
	}
	etag := `"` + report.Fingerprint(body) + `"`
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	_, _ = w.Write(body)
}

// ---- middleware ----

// authClient guards scan submission with the client key. No configured
// key means an open endpoint.
func (s *Server) authClient(next http.HandlerFunc) http.HandlerFunc {
	if s.clientAPIKey == "" {
		return next
	}
	return s.requireKey(next, s.clientAPIKey)
}

func (s *Server) authAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireKey(next, s.adminAPIKey)
}

func (s *Server) requireKey(next http.HandlerFunc, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := bearerToken(r)
		if got == "" {
			UnauthorizedError(w, r, "missing bearer token")
			return
		}
		// constant-time compare
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			ForbiddenError(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	}
}
