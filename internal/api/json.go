package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// WriteError writes a {"detail": ...} body. Exported for middleware mounted
// outside this package.
func WriteError(w http.ResponseWriter, status int, detail string) {
	writeError(w, status, detail)
}

// internalError logs err and replies with a generic 500.
func internalError(w http.ResponseWriter, msg string, err error, attrs ...slog.Attr) {
	args := []any{slog.String("error", err.Error())}
	for _, a := range attrs {
		args = append(args, a)
	}
	slog.Error(msg, args...)
	writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
