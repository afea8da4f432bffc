package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorCode is the machine-readable error class carried in every error body.
type ErrorCode string

const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeRequestTooLarge ErrorCode = "REQUEST_TOO_LARGE"

	// Scan input problems.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotObject  ErrorCode = "NOT_OBJECT"
)

// ErrorResponse is the JSON envelope for every non-2xx answer.
type ErrorResponse struct {
	Error     string            `json:"error"`                // HTTP status text
	Message   string            `json:"message"`              // Human-readable description
	Code      ErrorCode         `json:"code"`                 // Machine-readable error code
	Fields    map[string]string `json:"fields,omitempty"`     // Field-level errors
	RequestID string            `json:"request_id,omitempty"` // Request ID for debugging
}

// NewErrorResponse creates a new error response
func NewErrorResponse(statusCode int, code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    code,
	}
}

// WithFields adds field-level errors to the response
func (e *ErrorResponse) WithFields(fields map[string]string) *ErrorResponse {
	e.Fields = fields
	return e
}

// WithRequestID adds a request ID to the response
func (e *ErrorResponse) WithRequestID(requestID string) *ErrorResponse {
	e.RequestID = requestID
	return e
}

// writeErrorResponse stamps the chi request ID onto the envelope and sends it.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errResp *ErrorResponse) {
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		errResp.RequestID = reqID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errResp)
}

// respondError builds and writes the envelope in one step. The exported
// helpers below exist so handlers read as intent rather than status codes.
func respondError(w http.ResponseWriter, r *http.Request, statusCode int, code ErrorCode, message string, fields map[string]string) {
	errResp := NewErrorResponse(statusCode, code, message)
	if len(fields) > 0 {
		errResp.WithFields(fields)
	}
	writeErrorResponse(w, r, statusCode, errResp)
}

// ValidationError rejects a request whose parameters fail field checks.
func ValidationError(w http.ResponseWriter, r *http.Request, message string, fields map[string]string) {
	respondError(w, r, http.StatusBadRequest, ErrCodeValidation, message, fields)
}

// BadRequestError rejects a malformed request with the given code.
func BadRequestError(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	respondError(w, r, http.StatusBadRequest, code, message, nil)
}

// BadRequestErrorWithFields rejects a malformed request with field details.
func BadRequestErrorWithFields(w http.ResponseWriter, r *http.Request, code ErrorCode, message string, fields map[string]string) {
	respondError(w, r, http.StatusBadRequest, code, message, fields)
}

// UnauthorizedError answers a request that carried no usable credential.
func UnauthorizedError(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, message, nil)
}

// ForbiddenError answers a request whose credential failed verification.
func ForbiddenError(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusForbidden, ErrCodeForbidden, message, nil)
}

// InternalError reports a server-side failure without leaking its cause.
func InternalError(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, message, nil)
}

// NotFoundError answers a lookup that matched nothing.
func NotFoundError(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusNotFound, ErrCodeNotFound, message, nil)
}

// RequestTooLargeError rejects a body that blew the configured byte cap.
func RequestTooLargeError(w http.ResponseWriter, r *http.Request, message string) {
	respondError(w, r, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, message, nil)
}

// UnprocessableError rejects scan input that is readable but structurally
// unusable, such as a top-level array.
func UnprocessableError(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	respondError(w, r, http.StatusUnprocessableEntity, code, message, nil)
}
