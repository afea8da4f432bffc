package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDownload serves payload as a named JSON attachment. The bytes go out
// untouched so fingerprints computed over them stay verifiable.
func writeDownload(w http.ResponseWriter, name string, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	_, _ = w.Write(payload)
}

// bearerToken extracts the credential from the Authorization header. A bare
// token without the Bearer prefix is accepted as well.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer"))
}
