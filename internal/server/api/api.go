// Package api provides the JSON handlers of the dashboard API.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// MaxLimit caps the limit query parameter.
const MaxLimit = 1000

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// parseLimit reads the limit query parameter. Missing means def; values
// above MaxLimit are clamped.
func parseLimit(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > MaxLimit {
		n = MaxLimit
	}
	return n, true
}
