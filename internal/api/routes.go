// routes.go - Route registration helpers
package api

import (
	"github.com/data-explorer/client/internal/dashboard"
	"github.com/data-explorer/client/internal/state"
	"github.com/data-explorer/client/internal/upload"
	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	State      *state.Store
	Controller *upload.Controller
	Dashboard  *dashboard.Dashboard
	// History is nil when the attempt log is disabled.
	History        HistoryReader
	ServiceURL     string
	MaxUploadBytes int64
	Version        string
	// AllowOrigins lists the cross-origin pages that may open the socket.
	AllowOrigins []string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Upload    UploadHandler
	Dashboard DashboardHandler
	History   HistoryHandler
	WebSocket *WebSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.ServiceURL, deps.State),
		Upload:    NewUploadHandler(deps.State, deps.Controller, deps.MaxUploadBytes),
		Dashboard: NewDashboardHandler(deps.State, deps.Dashboard),
		History:   NewHistoryHandler(deps.History),
		WebSocket: NewWebSocketHandler(deps.State, deps.Dashboard, deps.AllowOrigins),
	}
}

// RegisterRoutes registers all routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/", handlers.Dashboard.HandlePage)

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/state", handlers.Dashboard.HandleState)
	apiGroup.GET("/charts", handlers.Dashboard.HandleCharts)
	apiGroup.GET("/charts/msgpack", handlers.Dashboard.HandleChartsMsgpack)
	apiGroup.GET("/history", handlers.History.HandleHistory)

	apiGroup.POST("/upload", handlers.Upload.HandleUpload)
	apiGroup.POST("/stock", handlers.Upload.HandleStock)
	apiGroup.POST("/reset", handlers.Upload.HandleReset)
	apiGroup.DELETE("/file", handlers.Upload.HandleClearFile)

	apiGroup.GET("/ws", handlers.WebSocket.HandleWebSocket)
}

// SetupMiddleware configures the error handler
func SetupMiddleware(e *echo.Echo, debug bool) {
	e.HTTPErrorHandler = NewErrorHandler(debug)
}
