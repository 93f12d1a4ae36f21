// fake_service.go - In-process stand-in for the remote analysis service
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Response is a canned answer of the fake service.
type Response struct {
	Status int
	Body   string
}

// RecordedRequest is what the fake service saw for one call.
type RecordedRequest struct {
	Method    string
	Path      string
	Query     string
	FormField string
	FileName  string
	Content   []byte
}

// FakeService serves canned chart responses and records every request.
type FakeService struct {
	Server *httptest.Server

	mu        sync.Mutex
	responses map[string]Response
	requests  []RecordedRequest
	gate      chan struct{}
}

// NewFakeService starts a fake service. Close it with t.Cleanup(fs.Close).
func NewFakeService() *FakeService {
	fs := &FakeService{
		responses: make(map[string]Response),
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.handle))
	return fs
}

// URL is the base address of the fake service.
func (fs *FakeService) URL() string {
	return fs.Server.URL
}

// Close shuts the server down, releasing any held requests first.
func (fs *FakeService) Close() {
	fs.Release()
	fs.Server.Close()
}

// Respond sets the answer for path.
func (fs *FakeService) Respond(path string, status int, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.responses[path] = Response{Status: status, Body: body}
}

// Hold makes every following request wait until Release is called.
func (fs *FakeService) Hold() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.gate == nil {
		fs.gate = make(chan struct{})
	}
}

// Release lets held requests answer.
func (fs *FakeService) Release() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.gate != nil {
		close(fs.gate)
		fs.gate = nil
	}
}

// Requests returns a copy of the recorded requests.
func (fs *FakeService) Requests() []RecordedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]RecordedRequest(nil), fs.requests...)
}

// RequestCount returns how many requests reached the service.
func (fs *FakeService) RequestCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.requests)
}

func (fs *FakeService) handle(w http.ResponseWriter, r *http.Request) {
	rec := RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
	}

	if r.Method == http.MethodPost {
		if err := r.ParseMultipartForm(32 << 20); err == nil && r.MultipartForm != nil {
			for field, headers := range r.MultipartForm.File {
				if len(headers) == 0 {
					continue
				}
				rec.FormField = field
				rec.FileName = headers[0].Filename
				if f, err := headers[0].Open(); err == nil {
					rec.Content, _ = io.ReadAll(f)
					f.Close()
				}
			}
		}
	}

	fs.mu.Lock()
	fs.requests = append(fs.requests, rec)
	resp, ok := fs.responses[r.URL.Path]
	gate := fs.gate
	fs.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	if !ok {
		resp = Response{Status: http.StatusNotFound, Body: `{"detail":"Not Found"}`}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = io.WriteString(w, resp.Body)
}
