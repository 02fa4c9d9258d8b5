package response

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcoot/pokersignup/internal/api/apierr"
)

// JSON writes a JSON response. The body is encoded before any header is sent,
// so a value that cannot be encoded becomes a 500 rather than a truncated reply.
// API responses are never cached.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Cache-Control", "no-store")
	if data == nil {
		w.WriteHeader(status)
		return
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Int("status", status), slog.Any("error", err))
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body.Bytes())
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}
