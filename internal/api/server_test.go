package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flagops/flagscrub/internal/history"
	"github.com/flagops/flagscrub/internal/ruleset"
	"github.com/flagops/flagscrub/internal/scan"
	"github.com/flagops/flagscrub/internal/store"
)

func newTestServer(t *testing.T, opts Options) (*Server, *store.MemoryStore) {
	t.Helper()

	rs := ruleset.Default()
	pipeline, err := scan.FromRuleset(rs)
	if err != nil {
		t.Fatalf("Failed to build pipeline: %v", err)
	}

	st := store.NewMemoryStore()
	rec := history.NewRecorder(st, nil, 64)
	t.Cleanup(func() { _ = rec.Close() })

	return NewServer(pipeline, rs, st, rec, opts), st
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	if rr.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got %s", rr.Body.String())
	}
}

func TestRulesetEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/ruleset", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatal("Expected ETag header to be set")
	}

	var rs ruleset.Ruleset
	if err := json.NewDecoder(rr.Body).Decode(&rs); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if rs.Version != 1 {
		t.Errorf("Expected ruleset version 1, got %d", rs.Version)
	}
	if len(rs.Prefixes) != 10 {
		t.Errorf("Expected 10 prefix rules, got %d", len(rs.Prefixes))
	}
}

func TestRulesetEndpoint_NotModified(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	handler := srv.Router()

	first := httptest.NewRequest(http.MethodGet, "/v1/ruleset", nil)
	rrFirst := httptest.NewRecorder()
	handler.ServeHTTP(rrFirst, first)

	etag := rrFirst.Header().Get("ETag")
	if etag == "" {
		t.Fatal("Expected ETag header to be set")
	}

	second := httptest.NewRequest(http.MethodGet, "/v1/ruleset", nil)
	second.Header.Set("If-None-Match", etag)
	rrSecond := httptest.NewRecorder()
	handler.ServeHTTP(rrSecond, second)

	if rrSecond.Code != http.StatusNotModified {
		t.Errorf("Expected status 304, got %d", rrSecond.Code)
	}
}

func TestScanAuth_ClientKey(t *testing.T) {
	srv, _ := newTestServer(t, Options{ClientAPIKey: "client-secret"})
	handler := srv.Router()

	tests := []struct {
		name       string
		authHeader string
		wantCode   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusForbidden},
		{"valid token", "Bearer client-secret", http.StatusOK},
		{"valid token without scheme", "client-secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(`{"DFFlagFoo": true}`))
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, rr.Code)
			}
		})
	}
}

func TestScanAuth_OpenWithoutClientKey(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	handler := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/v1/scan", strings.NewReader(`{"DFFlagFoo": true}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 without auth, got %d", rr.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	srv, _ := newTestServer(t, Options{AdminAPIKey: "admin-secret"})
	handler := srv.Router()

	tests := []struct {
		name       string
		authHeader string
		wantCode   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusForbidden},
		{"valid token", "Bearer admin-secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/scans", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, rr.Code)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"Bearer   abc123  ", "abc123"},
		{"abc123", "abc123"},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(req); got != tt.want {
			t.Errorf("bearerToken(%q): expected %q, got %q", tt.header, tt.want, got)
		}
	}
}
