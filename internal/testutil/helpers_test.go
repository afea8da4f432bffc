package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

func TestNewTestServer(t *testing.T) {
	server, memStore := NewTestServer(t)

	if server == nil {
		t.Fatal("Expected non-nil server")
	}
	if memStore == nil {
		t.Fatal("Expected non-nil store")
	}

	n, err := memStore.CountScans(context.Background())
	if err != nil {
		t.Fatalf("Store should be functional: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected empty store, got %d records", n)
	}
}

func TestHTTPRequest_Do(t *testing.T) {
	server, _ := NewTestServer(t)
	handler := server.Router()

	req := &HTTPRequest{
		Method: "GET",
		Path:   "/healthz",
	}

	rr := req.Do(t, handler)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", rr.Body.String())
	}
}

func TestHTTPRequest_DoWithBody(t *testing.T) {
	server, _ := NewTestServer(t)
	handler := server.Router()

	req := &HTTPRequest{
		Method: "POST",
		Path:   "/v1/scan?store=false",
		Body:   `{"DFFlagFoo": true}`,
	}

	rr := req.Do(t, handler)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"mode":"strict"`) {
		t.Errorf("Expected a strict-mode scan response, got %s", rr.Body.String())
	}
}

func TestHTTPRequest_DoWithHeaders(t *testing.T) {
	server, _ := NewTestServer(t)
	handler := server.Router()

	req := &HTTPRequest{
		Method:  "GET",
		Path:    "/v1/scans",
		Headers: AdminHeaders(),
	}

	rr := req.Do(t, handler)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 with admin headers, got %d", rr.Code)
	}
}

func TestAdminHeaders(t *testing.T) {
	headers := AdminHeaders()
	if headers["Authorization"] != "Bearer "+AdminKey {
		t.Errorf("Expected bearer header with AdminKey, got %q", headers["Authorization"])
	}
}
