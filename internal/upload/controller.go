// Package upload runs the upload lifecycle: file validation, a single
// request to the analysis service at a time, and reporting the outcome to
// the visualization state.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/data-explorer/client/internal/analysis"
	"github.com/data-explorer/client/internal/models"
	"github.com/data-explorer/client/internal/state"
)

const (
	DefaultExtension = ".csv"
	DefaultStockRows = 1000
)

// Recorder keeps a log of attempts. Errors are logged and otherwise ignored.
type Recorder interface {
	Start(ctx context.Context, a models.Attempt) error
	Finish(ctx context.Context, id string, status models.AttemptStatus, chartCount int, reason string) error
}

// Options tunes a Controller. Zero values select the defaults.
type Options struct {
	Extension   string
	DefaultRows int
	// Timeout bounds one attempt. Zero means no limit beyond the transport.
	Timeout time.Duration
	History Recorder
}

// Controller owns the upload lifecycle. It keeps no state between calls
// except the flag telling whether a request is in flight.
type Controller struct {
	ctx     context.Context
	state   *state.Store
	client  *analysis.Client
	history Recorder

	extension   string
	defaultRows int
	timeout     time.Duration

	submitting atomic.Bool
	wg         sync.WaitGroup
}

// NewController creates a controller. ctx bounds the lifetime of dispatched
// requests (server shutdown); it is not a per-upload cancel.
func NewController(ctx context.Context, st *state.Store, client *analysis.Client, opts Options) *Controller {
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.DefaultRows <= 0 {
		opts.DefaultRows = DefaultStockRows
	}
	return &Controller{
		ctx:         ctx,
		state:       st,
		client:      client,
		history:     opts.History,
		extension:   opts.Extension,
		defaultRows: opts.DefaultRows,
		timeout:     opts.Timeout,
	}
}

// Extension is the accepted filename suffix.
func (c *Controller) Extension() string {
	return c.extension
}

// DefaultRows is the row count used by Refresh when none is given.
func (c *Controller) DefaultRows() int {
	return c.defaultRows
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	return c.submitting.Load()
}

// Validate checks a filename against the accepted extension. The check is
// case-sensitive.
func (c *Controller) Validate(name string) error {
	if name == "" || !strings.HasSuffix(name, c.extension) {
		return &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("Please upload a valid %s file.", c.extension),
		}
	}
	return nil
}

// Submit validates file and uploads it. It returns the upload id as soon as
// the request is dispatched; the outcome is reported through the state.
func (c *Controller) Submit(file *models.UploadedFile) (string, error) {
	if file == nil {
		return "", c.Validate("")
	}
	if err := c.Validate(file.Name); err != nil {
		return "", err
	}
	return c.Load(analysis.FileSource{Client: c.client, Upload: file})
}

// Refresh loads the service's fixed dataset. rows of zero selects the
// configured default.
func (c *Controller) Refresh(rows int) (string, error) {
	if rows == 0 {
		rows = c.defaultRows
	}
	if rows < 0 {
		return "", &ValidationError{Field: "nrows", Message: "nrows must be greater than 0"}
	}
	return c.Load(analysis.StockSource{Client: c.client, Rows: rows})
}

// Load starts one attempt for src. Only one attempt may be in flight; a
// second call returns ErrBusy even if the state was reset meanwhile.
func (c *Controller) Load(src analysis.Source) (string, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		return "", ErrBusy
	}

	id, err := c.state.Begin(src.File(), src.Label())
	if err != nil {
		c.submitting.Store(false)
		return "", err
	}

	c.recordStart(id, src)

	c.wg.Add(1)
	go c.dispatch(id, src)

	return id, nil
}

// Wait blocks until the in-flight attempt, if any, has been reported.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) dispatch(id string, src analysis.Source) {
	defer c.wg.Done()

	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	slog.Info("dispatching to analysis service", "upload_id", id, "source", src.Kind(), "label", src.Label())

	charts, err := src.Fetch(ctx)
	// Released before reporting so observers of the outcome see the
	// controller idle. The store rejects the outcome if a newer attempt
	// started in between.
	c.submitting.Store(false)

	if err != nil {
		reason := analysis.Reason(err)
		slog.Warn("analysis request failed", "upload_id", id, "error", err, "elapsed", time.Since(start))

		status := models.AttemptFailed
		if !c.state.Fail(id, reason) {
			status = models.AttemptDiscarded
			c.state.Notify()
		}
		c.recordFinish(id, status, 0, reason)
		return
	}

	slog.Info("analysis request complete", "upload_id", id, "charts", len(charts), "elapsed", time.Since(start))

	status := models.AttemptLoaded
	if !c.state.Complete(id, charts) {
		status = models.AttemptDiscarded
		c.state.Notify()
	}
	c.recordFinish(id, status, len(charts), "")
}

func (c *Controller) recordStart(id string, src analysis.Source) {
	if c.history == nil {
		return
	}
	a := models.Attempt{
		ID:        id,
		Source:    src.Kind(),
		Label:     src.Label(),
		Status:    models.AttemptPending,
		StartedAt: time.Now(),
	}
	if f := src.File(); f != nil {
		a.FileName = f.Name
		a.SizeBytes = f.SizeBytes
	}
	if err := c.history.Start(context.Background(), a); err != nil {
		slog.Warn("failed to record upload start", "upload_id", id, "error", err)
	}
}

func (c *Controller) recordFinish(id string, status models.AttemptStatus, charts int, reason string) {
	if c.history == nil {
		return
	}
	if err := c.history.Finish(context.Background(), id, status, charts, reason); err != nil {
		slog.Warn("failed to record upload outcome", "upload_id", id, "error", err)
	}
}
