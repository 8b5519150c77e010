package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

const maxRefreshBody = 4 << 10

// RefreshDependencies defines the interface for on-demand reloads.
type RefreshDependencies interface {
	RequestRefresh(ctx context.Context, reason string) (string, bool)
}

// refreshRequest mirrors the OpenAPI schema for POST /refresh. The body is optional.
type refreshRequest struct {
	Reason string `json:"reason"`
}

type refreshResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// RefreshHandler handles refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

// HandlePostRefresh handles POST /refresh requests.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRefreshBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
			return
		}
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "api"
	}

	id, ok := h.deps.RequestRefresh(r.Context(), reason)
	if !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: "accepted", ID: id})
}
