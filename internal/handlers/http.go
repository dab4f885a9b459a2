package handlers

import (
	"encoding/json"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"

	"roomy-ai-core/internal/models"
	"roomy-ai-core/internal/services/auth"
	"roomy-ai-core/internal/services/matcher"
	"roomy-ai-core/internal/utils"
)

// maxBodyBytes caps request bodies on the local server.
const maxBodyBytes = 1 << 20

// ServeHTTP serves the match endpoint on a net/http server. CORS is left to
// the server middleware.
func (h *MatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, models.ErrInvalidRequest)
		return
	}

	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}

	result, err := h.svc.Handle(r.Context(), matcher.Call{
		Token:    auth.BearerToken(r.Header.Get("Authorization")),
		ClientIP: clientIP(remote, r.Header.Get("X-Forwarded-For")),
		Body:     body,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *MatchHandler) writeError(w http.ResponseWriter, err error) {
	status := models.StatusFor(err)
	h.logError(status, err)
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	writeJSON(w, status, ErrorResponse{Error: models.PublicMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.GetLogger().Warn("Failed to write response", zap.Error(err))
	}
}
