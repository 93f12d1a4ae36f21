// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/data-explorer/client/internal/models"
	"github.com/labstack/echo/v4"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// UploadHandler starts, resets and clears uploads
type UploadHandler interface {
	HandleUpload(c echo.Context) error
	HandleStock(c echo.Context) error
	HandleReset(c echo.Context) error
	HandleClearFile(c echo.Context) error
}

// DashboardHandler serves the page and the loaded charts
type DashboardHandler interface {
	HandlePage(c echo.Context) error
	HandleState(c echo.Context) error
	HandleCharts(c echo.Context) error
	HandleChartsMsgpack(c echo.Context) error
}

// HistoryHandler serves the attempt log
type HistoryHandler interface {
	HandleHistory(c echo.Context) error
}

// HistoryReader lists recent attempts. This allows mocking in tests
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]models.Attempt, error)
}
