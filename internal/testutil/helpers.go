// Package testutil holds shared helpers for exercising the HTTP API in
// tests.
package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flagops/flagscrub/internal/api"
	"github.com/flagops/flagscrub/internal/history"
	"github.com/flagops/flagscrub/internal/ruleset"
	"github.com/flagops/flagscrub/internal/scan"
	"github.com/flagops/flagscrub/internal/store"
)

// AdminKey protects the history endpoints on test servers.
const AdminKey = "test-admin-key"

// NewTestServer creates an API server over an in-memory store with the
// default rule set. The scan endpoint is open; history endpoints require
// AdminKey.
func NewTestServer(t *testing.T) (*api.Server, *store.MemoryStore) {
	t.Helper()

	rs := ruleset.Default()
	pipeline, err := scan.FromRuleset(rs)
	if err != nil {
		t.Fatalf("Failed to build pipeline: %v", err)
	}

	memStore := store.NewMemoryStore()
	rec := history.NewRecorder(memStore, nil, 64)
	t.Cleanup(func() { _ = rec.Close() })

	server := api.NewServer(pipeline, rs, memStore, rec, api.Options{
		AdminAPIKey: AdminKey,
	})
	return server, memStore
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// AdminHeaders returns the Authorization header for the test admin key.
func AdminHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + AdminKey}
}
