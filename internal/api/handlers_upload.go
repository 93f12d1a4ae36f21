// handlers_upload.go - Upload lifecycle handlers
package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/data-explorer/client/internal/models"
	"github.com/data-explorer/client/internal/state"
	"github.com/data-explorer/client/internal/upload"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/bytes"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	state      *state.Store
	controller *upload.Controller
	maxBytes   int64
}

// NewUploadHandler creates a new upload handler instance. maxBytes of zero
// disables the size check.
func NewUploadHandler(st *state.Store, controller *upload.Controller, maxBytes int64) UploadHandler {
	return &UploadHandlerImpl{
		state:      st,
		controller: controller,
		maxBytes:   maxBytes,
	}
}

// uploadAccepted is returned once a request to the analysis service is
// dispatched. The outcome arrives over the WebSocket.
type uploadAccepted struct {
	UploadID string       `json:"uploadId"`
	Phase    models.Phase `json:"phase"`
}

// HandleUpload accepts a multipart file and sends it to the analysis service
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return FromError(h.controller.Validate(""))
	}

	if err := h.controller.Validate(fileHeader.Filename); err != nil {
		return FromError(err)
	}

	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		return NewValidationError("file", fmt.Sprintf("File is too large (limit %s).", bytes.Format(h.maxBytes)))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return NewBadRequestError("failed to open uploaded file", err)
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return NewBadRequestError("failed to read uploaded file", err)
	}

	id, err := h.controller.Submit(models.NewUploadedFile(fileHeader.Filename, content))
	if err != nil {
		return FromError(err)
	}

	slog.Info("upload dispatched", "upload_id", id, "file", fileHeader.Filename, "bytes", len(content))
	return c.JSON(http.StatusAccepted, uploadAccepted{UploadID: id, Phase: models.PhaseUploading})
}

// HandleStock loads the analysis service's fixed dataset
func (h *UploadHandlerImpl) HandleStock(c echo.Context) error {
	rows := 0
	if raw := c.QueryParam("nrows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return NewValidationError("nrows", "nrows must be an integer")
		}
		if n <= 0 {
			return NewValidationError("nrows", "nrows must be greater than 0")
		}
		rows = n
	}

	id, err := h.controller.Refresh(rows)
	if err != nil {
		return FromError(err)
	}

	return c.JSON(http.StatusAccepted, uploadAccepted{UploadID: id, Phase: models.PhaseUploading})
}

// HandleReset discards the loaded charts and returns to the uploader
func (h *UploadHandlerImpl) HandleReset(c echo.Context) error {
	snap := h.state.Reset()
	return c.JSON(http.StatusOK, newStateResponse(snap, h.busy(snap.Phase)))
}

// HandleClearFile removes the pending file while idle
func (h *UploadHandlerImpl) HandleClearFile(c echo.Context) error {
	if err := h.state.ClearFile(); err != nil {
		return FromError(err)
	}
	snap := h.state.Snapshot()
	return c.JSON(http.StatusOK, newStateResponse(snap, h.busy(snap.Phase)))
}

// busy reports whether a new upload would be refused, including while a
// reset attempt is still draining.
func (h *UploadHandlerImpl) busy(phase models.Phase) bool {
	return phase == models.PhaseUploading || h.controller.Busy()
}
