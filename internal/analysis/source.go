package analysis

import (
	"context"
	"fmt"

	"github.com/data-explorer/client/internal/models"
)

// Source produces chart specifications from the analysis service. The
// upload flow and the fixed-dataset flow are both Sources so the dashboard
// runs a single state machine for either.
type Source interface {
	// Fetch performs the request. It is called once per attempt.
	Fetch(ctx context.Context) ([]models.ChartSpec, error)
	// Label names the data on the dashboard.
	Label() string
	// File is the uploaded file, or nil when the source sends none.
	File() *models.UploadedFile
	// Kind is a short tag recorded in the upload history.
	Kind() string
}

// FileSource uploads a user file to the visualize endpoint.
type FileSource struct {
	Client *Client
	Upload *models.UploadedFile
}

func (s FileSource) Fetch(ctx context.Context) ([]models.ChartSpec, error) {
	return s.Client.Visualize(ctx, s.Upload)
}

func (s FileSource) Label() string              { return s.Upload.Name }
func (s FileSource) File() *models.UploadedFile { return s.Upload }
func (s FileSource) Kind() string               { return "upload" }

// StockSource queries the service's fixed stock dataset.
type StockSource struct {
	Client *Client
	Rows   int
}

func (s StockSource) Fetch(ctx context.Context) ([]models.ChartSpec, error) {
	return s.Client.Stock(ctx, s.Rows)
}

func (s StockSource) Label() string              { return fmt.Sprintf("Stock dataset (last %d rows)", s.Rows) }
func (s StockSource) File() *models.UploadedFile { return nil }
func (s StockSource) Kind() string               { return "stock" }
