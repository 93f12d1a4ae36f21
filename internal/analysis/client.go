// Package analysis is the HTTP client for the remote analysis service that
// turns uploaded tables into chart specifications.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/data-explorer/client/internal/models"
)

const (
	DefaultBaseURL       = "http://127.0.0.1:8000"
	DefaultVisualizePath = "/api/visualize"
	DefaultStockPath     = "/api/stock"
	DefaultFormField     = "file"
)

// Config locates the analysis service endpoints.
type Config struct {
	BaseURL       string
	VisualizePath string
	StockPath     string
	FormField     string
	// Timeout bounds a single request. Zero leaves the transport default.
	Timeout time.Duration
}

// Client talks to the analysis service.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client. A nil httpClient uses a fresh http.Client.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.VisualizePath == "" {
		cfg.VisualizePath = DefaultVisualizePath
	}
	if cfg.StockPath == "" {
		cfg.StockPath = DefaultStockPath
	}
	if cfg.FormField == "" {
		cfg.FormField = DefaultFormField
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// VisualizeURL returns the upload endpoint address.
func (c *Client) VisualizeURL() string {
	return c.cfg.BaseURL + c.cfg.VisualizePath
}

// StockURL returns the fixed-dataset endpoint address for rows rows.
func (c *Client) StockURL(rows int) string {
	q := url.Values{}
	q.Set("nrows", strconv.Itoa(rows))
	return c.cfg.BaseURL + c.cfg.StockPath + "?" + q.Encode()
}

// Visualize uploads file as multipart form content and returns the charts
// the service produced for it.
func (c *Client) Visualize(ctx context.Context, file *models.UploadedFile) ([]models.ChartSpec, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(c.cfg.FormField, file.Name)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.VisualizeURL(), body)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

// Stock queries the service's fixed dataset for its last rows rows.
func (c *Client) Stock(ctx context.Context, rows int) ([]models.ChartSpec, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.StockURL(rows), nil)
	if err != nil {
		return nil, fmt.Errorf("building stock request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]models.ChartSpec, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Message:    errorDetail(body),
		}
	}

	return DecodeCharts(body)
}
