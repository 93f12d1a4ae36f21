package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/data-explorer/client/internal/models"
	"github.com/data-explorer/client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *testutil.FakeService) {
	t.Helper()
	fs := testutil.NewFakeService()
	t.Cleanup(fs.Close)
	return NewClient(Config{BaseURL: fs.URL() + "/"}, nil), fs
}

func TestClient_Visualize(t *testing.T) {
	client, fs := newTestClient(t)
	fs.Respond("/api/visualize", http.StatusOK, testutil.ChartsBody("Revenue"))

	content := make([]byte, 200)
	charts, err := client.Visualize(context.Background(), models.NewUploadedFile("sales.csv", content))
	require.NoError(t, err)
	require.Len(t, charts, 1)
	assert.Equal(t, map[string]any{"text": "Revenue"}, charts[0].Layout["title"])

	reqs := fs.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "file", reqs[0].FormField)
	assert.Equal(t, "sales.csv", reqs[0].FileName)
	assert.Equal(t, content, reqs[0].Content)
}

func TestClient_Stock(t *testing.T) {
	client, fs := newTestClient(t)
	fs.Respond("/api/stock", http.StatusOK, testutil.ChartsBody("Open", "High", "Low", "Close"))

	charts, err := client.Stock(context.Background(), 250)
	require.NoError(t, err)
	assert.Len(t, charts, 4)

	reqs := fs.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "nrows=250", reqs[0].Query)
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantReason string
	}{
		{"detail string", http.StatusInternalServerError, `{"detail":"parse error"}`, "parse error"},
		{"no detail", http.StatusBadGateway, `{}`, DefaultFailureMessage},
		{"not json", http.StatusInternalServerError, `Internal Server Error`, DefaultFailureMessage},
		{"validation list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"bad type"}]}`, "field required; bad type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fs := newTestClient(t)
			fs.Respond("/api/visualize", tt.status, tt.body)

			_, err := client.Visualize(context.Background(), models.NewUploadedFile("big.csv", []byte("a")))
			require.Error(t, err)

			var svc *ServiceError
			require.True(t, errors.As(err, &svc))
			assert.Equal(t, tt.status, svc.StatusCode)
			assert.Equal(t, tt.wantReason, Reason(err))
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	client, fs := newTestClient(t)
	fs.Close()

	_, err := client.Stock(context.Background(), 10)
	require.Error(t, err)

	var te *TransportError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, UnreachableMessage, Reason(err))
}

func TestReason_HidesInternalDetail(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"service message", &ServiceError{StatusCode: 500, Message: "parse error"}, "parse error"},
		{"empty service message", &ServiceError{StatusCode: 500}, DefaultFailureMessage},
		{"transport", &TransportError{Err: errors.New("dial tcp 10.0.0.7:8000: connection refused")}, UnreachableMessage},
		{"timeout", &TransportError{Err: fmt.Errorf("post: %w", context.DeadlineExceeded)}, TimeoutMessage},
		{"invalid body", fmt.Errorf("%w: unexpected end of JSON input", ErrInvalidResponse), InvalidResponseMessage},
		{"other", errors.New("boom at 0xc000012345"), DefaultFailureMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reason(tt.err)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "dial tcp")
			assert.NotContains(t, got, "JSON")
		})
	}
}

func TestDecodeCharts(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCount int
		wantErr   error
		wantMsg   string
	}{
		{name: "envelope", body: testutil.ChartsBody("a", "b"), wantCount: 2},
		{name: "bare list", body: testutil.BareChartsBody("a", "b", "c"), wantCount: 3},
		{name: "empty envelope", body: `{"charts":[]}`, wantCount: 0},
		{name: "null charts", body: `{"charts":null}`, wantCount: 0},
		{name: "empty list", body: `[]`, wantCount: 0},
		{name: "extra envelope keys", body: `{"charts":[{"data":[]}],"fileName":"x.csv"}`, wantCount: 1},
		{name: "error body", body: `{"error":"dataset.csv not found in the backend folder."}`, wantMsg: "dataset.csv not found in the backend folder."},
		{name: "object without charts", body: `{"foo":1}`, wantErr: ErrInvalidResponse},
		{name: "charts not a list", body: `{"charts":"nope"}`, wantErr: ErrInvalidResponse},
		{name: "malformed json", body: `{"charts":[`, wantErr: ErrInvalidResponse},
		{name: "empty body", body: ``, wantErr: ErrInvalidResponse},
		{name: "scalar", body: `42`, wantErr: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			charts, err := DecodeCharts([]byte(tt.body))

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantMsg, Reason(err))
			default:
				require.NoError(t, err)
				assert.NotNil(t, charts)
				assert.Len(t, charts, tt.wantCount)
			}
		})
	}
}

func TestSources(t *testing.T) {
	client := NewClient(Config{}, nil)
	file := models.NewUploadedFile("sales.csv", []byte("a"))

	var src Source = FileSource{Client: client, Upload: file}
	assert.Equal(t, "sales.csv", src.Label())
	assert.Equal(t, file, src.File())
	assert.Equal(t, "upload", src.Kind())

	src = StockSource{Client: client, Rows: 1000}
	assert.Equal(t, "Stock dataset (last 1000 rows)", src.Label())
	assert.Nil(t, src.File())
	assert.Equal(t, "stock", src.Kind())

	assert.Equal(t, "http://127.0.0.1:8000/api/visualize", client.VisualizeURL())
	assert.Equal(t, "http://127.0.0.1:8000/api/stock?nrows=5", client.StockURL(5))
}
