// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/data-explorer/client/internal/state"
	"github.com/data-explorer/client/internal/web"
	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version    string
	serviceURL string
	state      *state.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, serviceURL string, st *state.Store) HealthHandler {
	return &HealthHandlerImpl{
		version:    version,
		serviceURL: serviceURL,
		state:      st,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"version":         h.version,
		"analysisService": h.serviceURL,
		"phase":           h.state.Snapshot().Phase,
		"subscribers":     h.state.Subscribers(),
		"assets":          web.HasEmbeddedFiles(),
	})
}
