package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Strob0t/technews/internal/domain"
)

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorText holds the client-facing messages for one endpoint family.
// Upstream detail never reaches the client; it is logged instead.
type errorText struct {
	failed        string
	timedOut      string
	notConfigured string
}

var (
	newsErrors = errorText{
		failed:        "failed to fetch news",
		timedOut:      "news service timed out",
		notConfigured: "news service is not configured",
	}
	contactErrors = errorText{
		failed:        "failed to send message",
		timedOut:      "failed to send message",
		notConfigured: "contact service is not configured",
	}
)

func writeDomainError(w http.ResponseWriter, r *http.Request, err error, text errorText) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		msg := err.Error()
		msg = strings.TrimSuffix(msg, ": "+domain.ErrValidation.Error())
		msg = strings.TrimPrefix(msg, domain.ErrValidation.Error()+": ")
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, domain.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, text.notConfigured)
	case errors.Is(err, domain.ErrTimeout):
		slog.WarnContext(r.Context(), "request timed out", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusGatewayTimeout, text.timedOut)
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, text.failed)
	}
}
