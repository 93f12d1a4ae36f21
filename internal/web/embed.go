// Package web provides the embedded page templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

// StaticPrefix is the URL prefix the static assets are served under.
const StaticPrefix = "/static"

// Templates parses the embedded page templates. The set defines "page" for
// the full document and "main" for the region pushed over the WebSocket.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFiles, "templates/*.html")
}

// GetFileSystem returns the embedded filesystem with the static folder as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "static")
}

// RegisterStaticRoutes serves the embedded assets under StaticPrefix.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}

	fileServer := http.StripPrefix(StaticPrefix, http.FileServer(http.FS(staticFS)))

	e.GET(StaticPrefix+"/*", func(c echo.Context) error {
		name := strings.TrimPrefix(path.Clean(c.Param("*")), "/")
		stat, err := fs.Stat(staticFS, name)
		if err != nil || stat.IsDir() {
			return echo.NewHTTPError(http.StatusNotFound, "asset not found")
		}
		fileServer.ServeHTTP(c.Response(), c.Request())
		return nil
	})

	return nil
}

// HasEmbeddedFiles reports whether the dashboard script was embedded.
func HasEmbeddedFiles() bool {
	_, err := fs.Stat(staticFiles, "static/dashboard.js")
	return err == nil
}
