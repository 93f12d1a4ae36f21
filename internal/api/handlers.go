package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/data-explorer/client/internal/dashboard"
	"github.com/data-explorer/client/internal/models"
	"github.com/data-explorer/client/internal/state"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// stateResponse is the snapshot plus what the page derives from it.
type stateResponse struct {
	models.Snapshot
	Mode       string `json:"mode"`
	Busy       bool   `json:"busy"`
	ChartCount int    `json:"chartCount"`
}

func newStateResponse(snap models.Snapshot, busy bool) stateResponse {
	mode := dashboard.ModeUploader
	if snap.Phase == models.PhaseLoaded {
		mode = dashboard.ModeCharts
	}
	return stateResponse{
		Snapshot:   snap,
		Mode:       mode,
		Busy:       busy,
		ChartCount: snap.ChartCount(),
	}
}

// chartsResponse lists the themed chart specs.
type chartsResponse struct {
	Phase    models.Phase       `json:"phase"`
	FileName string             `json:"fileName,omitempty"`
	Charts   []models.ChartSpec `json:"charts"`
}

// msgpackChart carries a decoded figure; raw JSON would be sent as bytes.
type msgpackChart struct {
	Data   interface{}            `msgpack:"data"`
	Layout map[string]interface{} `msgpack:"layout"`
}

// DashboardHandlerImpl implements the DashboardHandler interface
type DashboardHandlerImpl struct {
	state     *state.Store
	dashboard *dashboard.Dashboard
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(st *state.Store, d *dashboard.Dashboard) DashboardHandler {
	return &DashboardHandlerImpl{
		state:     st,
		dashboard: d,
	}
}

// HandlePage renders the full dashboard page
func (h *DashboardHandlerImpl) HandlePage(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.dashboard.Render(&buf, h.dashboard.Current()); err != nil {
		return NewInternalError("failed to render page", err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// HandleState returns the current snapshot
func (h *DashboardHandlerImpl) HandleState(c echo.Context) error {
	snap := h.state.Snapshot()
	return c.JSON(http.StatusOK, newStateResponse(snap, h.dashboard.Busy(snap.Phase)))
}

// HandleCharts returns the themed chart specs as JSON
func (h *DashboardHandlerImpl) HandleCharts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.charts())
}

// HandleChartsMsgpack returns the themed chart specs in MessagePack format
func (h *DashboardHandlerImpl) HandleChartsMsgpack(c echo.Context) error {
	resp := h.charts()

	charts := make([]msgpackChart, 0, len(resp.Charts))
	for _, spec := range resp.Charts {
		var data interface{} = []interface{}{}
		if len(spec.Data) > 0 {
			if err := json.Unmarshal(spec.Data, &data); err != nil {
				return NewInternalError("failed to decode chart data", err)
			}
		}
		charts = append(charts, msgpackChart{Data: data, Layout: spec.Layout})
	}

	data, err := msgpack.Marshal(map[string]interface{}{
		"phase":    resp.Phase,
		"fileName": resp.FileName,
		"charts":   charts,
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

func (h *DashboardHandlerImpl) charts() chartsResponse {
	snap := h.state.Snapshot()
	resp := chartsResponse{
		Phase:  snap.Phase,
		Charts: []models.ChartSpec{},
	}
	if snap.Phase == models.PhaseLoaded && snap.Result != nil {
		resp.FileName = snap.Result.FileName
		resp.Charts = h.dashboard.ThemedCharts(snap)
	}
	return resp
}

// HistoryHandlerImpl implements the HistoryHandler interface
type HistoryHandlerImpl struct {
	history HistoryReader
}

// NewHistoryHandler creates a new history handler. history may be nil when
// the log is disabled.
func NewHistoryHandler(history HistoryReader) HistoryHandler {
	return &HistoryHandlerImpl{history: history}
}

// HandleHistory returns the most recent upload attempts
func (h *HistoryHandlerImpl) HandleHistory(c echo.Context) error {
	if h.history == nil {
		return NewServiceUnavailableError("upload history is disabled")
	}

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return NewValidationError("limit", "limit must be a positive integer")
		}
		limit = min(n, maxHistoryLimit)
	}

	attempts, err := h.history.Recent(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to read upload history", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"attempts": attempts,
		"count":    len(attempts),
	})
}
