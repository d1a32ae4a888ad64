package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorBody is the uniform error envelope of the API.
type errorBody struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encoding failed", "error", err)
	}
}

// respondRawJSON writes an already-marshaled JSON payload.
func respondRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// respondProblems reports validation failures as a 422 with the
// human-readable problem list.
func respondProblems(w http.ResponseWriter, problems []string) {
	respondJSON(w, http.StatusUnprocessableEntity, errorBody{
		Error:    "validation failed",
		Problems: problems,
	})
}

func respondNotFound(w http.ResponseWriter, what string) {
	respondError(w, http.StatusNotFound, what+" not found")
}
