package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flagops/flagscrub/internal/extract"
	"github.com/flagops/flagscrub/internal/parse"
	"github.com/flagops/flagscrub/internal/schema"
	"github.com/flagops/flagscrub/internal/telemetry"
)

// Signal values for scans that completed without producing a report.
const (
	SignalNoCandidate = "NO_CANDIDATE"
	SignalNoFlags     = "NO_FLAGS"
)

// scanResponse is the wire form of one scan outcome. Signal responses
// carry zero counts and empty buckets; successful scans carry the full
// report plus the canonical cleaned payload.
type scanResponse struct {
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

// handleScan runs the request body through the pipeline. The body is the
// raw dump itself, not a JSON envelope; anything pasteable is accepted.
// Pass ?store=false to skip archiving the result.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLargeError(w, r, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		BadRequestError(w, r, ErrCodeBadRequest, "failed to read request body")
		return
	}
	raw := string(body)

	start := time.Now()
	rep, err := s.pipeline.Scan(raw)
	telemetry.ScanDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.respondScanError(w, r, err)
		return
	}

	telemetry.ScansTotal.WithLabelValues(string(rep.Mode), telemetry.OutcomeOK).Inc()
	telemetry.ScanInputKeys.Observe(float64(rep.InputKeys))

	resp := scanResponse{
		Mode:           string(rep.Mode),
		InputKeys:      rep.InputKeys,
		KeptCount:      len(rep.Kept),
		RemovedIllegal: rep.RemovedIllegal,
		DroppedInvalid: rep.DroppedInvalid,
		Coercions:      rep.Coercions,
		Cleaned:        rep.Cleaned,
		Fingerprint:    rep.Fingerprint,
		FileName:       rep.FileName(),
		Summary:        rep.Summary(),
	}

	if s.history != nil && r.URL.Query().Get("store") != "false" {
		if id, ok := s.history.Record(raw, rep); ok {
			resp.ScanID = id.String()
			resp.Stored = true
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// respondScanError maps pipeline failures onto the wire. Inputs with no
// usable object span and inputs yielding zero pairs are answered 200 with
// a signal; only a structural mismatch is the caller's error.
func (s *Server) respondScanError(w http.ResponseWriter, r *http.Request, err error) {
	var notObject *parse.NotObjectError
	switch {
	case errors.Is(err, extract.ErrNoCandidate):
		telemetry.ScansTotal.WithLabelValues("none", telemetry.OutcomeNoCandidate).Inc()
		writeJSON(w, http.StatusOK, emptyScanResponse(SignalNoCandidate))
	case errors.As(err, &notObject):
		telemetry.ScansTotal.WithLabelValues("none", telemetry.OutcomeNotObject).Inc()
		UnprocessableError(w, r, ErrCodeNotObject, notObject.Error())
	case errors.Is(err, parse.ErrNoFlags):
		telemetry.ScansTotal.WithLabelValues("none", telemetry.OutcomeNoFlags).Inc()
		writeJSON(w, http.StatusOK, emptyScanResponse(SignalNoFlags))
	default:
		InternalError(w, r, "scan failed")
	}
}

func emptyScanResponse(signal string) scanResponse {
	return scanResponse{
		Signal:         signal,
		RemovedIllegal: []string{},
		DroppedInvalid: []schema.Rejection{},
		Coercions:      []schema.Coercion{},
	}
}
