// Package client is the HTTP client side of the flagscrub API, used by the
// CLI to talk to a running server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flagops/flagscrub/internal/ruleset"
	"github.com/flagops/flagscrub/internal/schema"
	"github.com/flagops/flagscrub/internal/store"
)

// Client is an HTTP client for the flagscrub API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ScanResult is the server's answer to a scan submission.
type ScanResult struct {
	Signal         string             `json:"signal,omitempty"`
	Mode           string             `json:"mode,omitempty"`
	InputKeys      int                `json:"inputKeys"`
	KeptCount      int                `json:"keptCount"`
	RemovedIllegal []string           `json:"removedIllegal"`
	DroppedInvalid []schema.Rejection `json:"droppedInvalid"`
	Coercions      []schema.Coercion  `json:"coercions"`
	Cleaned        json.RawMessage    `json:"cleaned,omitempty"`
	Fingerprint    string             `json:"fingerprint,omitempty"`
	FileName       string             `json:"fileName,omitempty"`
	Summary        string             `json:"summary,omitempty"`
	ScanID         string             `json:"scanId,omitempty"`
	Stored         bool               `json:"stored"`
}

// ScanList is one page of archived scans.
type ScanList struct {
	Scans      []store.Record `json:"scans"`
	Pagination Pagination     `json:"pagination"`
}

// Pagination describes the page a listing covers.
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// Submit sends a raw dump to the server for scrubbing. When archive is
// false the server is asked not to record the scan.
func (c *Client) Submit(ctx context.Context, raw string, archive bool) (*ScanResult, error) {
	endpoint := c.BaseURL + "/v1/scan"
	if !archive {
		endpoint += "?store=false"
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var result ScanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// ListScans retrieves one page of archived scans, newest first.
func (c *Client) ListScans(ctx context.Context, limit, offset int) (*ScanList, error) {
	u, err := url.Parse(c.BaseURL + "/v1/scans")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var result ScanList
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// GetScan retrieves a single archived scan by ID.
func (c *Client) GetScan(ctx context.Context, id string) (*store.Record, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/v1/scans/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var rec store.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &rec, nil
}

// GetScanOutput retrieves a record's canonical cleaned payload, byte for
// byte as it was fingerprinted.
func (c *Client) GetScanOutput(ctx context.Context, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/v1/scans/"+url.PathEscape(id)+"/output", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	return io.ReadAll(resp.Body)
}

// GetRuleset retrieves the rule table the server scrubs against.
func (c *Client) GetRuleset(ctx context.Context) (*ruleset.Ruleset, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/v1/ruleset", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var rs ruleset.Ruleset
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &rs, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}

func apiError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
}
