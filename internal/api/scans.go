package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flagops/flagscrub/internal/store"
)

// Pagination bounds for scan history listings.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type listScansResponse struct {
	Scans      []store.Record `json:"scans"`
	Pagination paginationInfo `json:"pagination"`
}

type paginationInfo struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// handleListScans lists archived scans, newest first.
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	offset := 0

	fields := make(map[string]string)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxListLimit {
			fields["limit"] = fmt.Sprintf("Limit must be an integer between 1 and %d", maxListLimit)
		} else {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fields["offset"] = "Offset must be a non-negative integer"
		} else {
			offset = n
		}
	}
	if len(fields) > 0 {
		ValidationError(w, r, "Invalid pagination parameters", fields)
		return
	}

	records, err := s.store.ListScans(r.Context(), limit, offset)
	if err != nil {
		InternalError(w, r, "failed to list scans")
		return
	}
	total, err := s.store.CountScans(r.Context())
	if err != nil {
		InternalError(w, r, "failed to count scans")
		return
	}

	writeJSON(w, http.StatusOK, listScansResponse{
		Scans:      records,
		Pagination: paginationInfo{Limit: limit, Offset: offset, Total: total},
	})
}

// handleGetScan returns one archived scan record.
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupScan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleGetScanOutput serves a record's canonical payload verbatim, as a
// download named after its fingerprint. The stored bytes are written
// untouched so the fingerprint stays verifiable.
func (s *Server) handleGetScanOutput(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupScan(w, r)
	if !ok {
		return
	}
	writeDownload(w, rec.FileName(), rec.Output)
}

// lookupScan resolves the {id} path parameter to a stored record. It writes
// the error response itself and returns false when it cannot.
func (s *Server) lookupScan(w http.ResponseWriter, r *http.Request) (*store.Record, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		BadRequestErrorWithFields(w, r, ErrCodeValidation, "Invalid scan ID", map[string]string{
			"id": "Scan ID must be a valid UUID",
		})
		return nil, false
	}

	rec, err := s.store.GetScan(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFoundError(w, r, "Scan not found")
			return nil, false
		}
		InternalError(w, r, "failed to load scan")
		return nil, false
	}
	return rec, true
}
