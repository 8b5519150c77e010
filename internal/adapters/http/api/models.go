package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/pitwall/internal/domain/model"
)

const defaultMaxDriversLimit = 100

// ModelsDependencies defines the interface for season-level aggregates.
type ModelsDependencies interface {
	Models(ctx context.Context) ([]model.ModelMetrics, error)
	Drivers(ctx context.Context, limit int) ([]model.DriverStat, error)
}

// ModelsHandler handles model and driver aggregate requests.
type ModelsHandler struct {
	deps     ModelsDependencies
	maxLimit int
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(deps ModelsDependencies, maxLimit int) *ModelsHandler {
	if maxLimit <= 0 {
		maxLimit = defaultMaxDriversLimit
	}
	return &ModelsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetModels handles GET /models requests.
func (h *ModelsHandler) HandleGetModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.deps.Models(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models)
}

// HandleGetDrivers handles GET /drivers?limit=N requests. Without a limit
// the configured maximum applies.
func (h *ModelsHandler) HandleGetDrivers(w http.ResponseWriter, r *http.Request) {
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: max %d", ErrLimitExceeded, h.maxLimit))
			return
		}
		n = v
	}
	drivers, err := h.deps.Drivers(r.Context(), n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drivers)
}
