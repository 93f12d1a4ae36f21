// Package dashboard derives what the page shows from the visualization
// state and renders it.
package dashboard

import (
	"context"
	"fmt"
	"html/template"
	"io"

	"github.com/data-explorer/client/internal/models"
	"github.com/data-explorer/client/internal/render"
	"github.com/data-explorer/client/internal/state"
	"github.com/data-explorer/client/internal/theme"
)

// View modes.
const (
	ModeUploader = "uploader"
	ModeCharts   = "charts"
)

// FileView is the pending file as shown next to the uploader.
type FileView struct {
	Name   string
	SizeKB string
}

// View is the page model for one snapshot.
type View struct {
	Mode       string
	Phase      models.Phase
	Busy       bool
	Reason     string
	File       *FileView
	Cards      []render.Card
	ChartCount int
	Label      string
	UploadID   string

	Extension   string
	DefaultRows int
}

// Options configures the uploader controls shown on the page.
type Options struct {
	Extension   string
	DefaultRows int
	// Busy reports whether an attempt still holds the uploader, which can
	// outlive the uploading phase after a reset. Optional.
	Busy func() bool
}

// Dashboard composes the state, the theme and the renderer.
type Dashboard struct {
	store    *state.Store
	theme    theme.Theme
	renderer *render.Renderer
	tmpl     *template.Template
	opts     Options
}

// New creates a Dashboard. tmpl must define "page" and "main".
func New(store *state.Store, t theme.Theme, renderer *render.Renderer, tmpl *template.Template, opts Options) *Dashboard {
	if renderer == nil {
		renderer = render.New()
	}
	return &Dashboard{
		store:    store,
		theme:    t,
		renderer: renderer,
		tmpl:     tmpl,
		opts:     opts,
	}
}

// Theme returns the theme applied to every chart.
func (d *Dashboard) Theme() theme.Theme {
	return d.theme
}

// Current returns the view of the current state.
func (d *Dashboard) Current() View {
	return d.View(d.store.Snapshot())
}

// View derives the page model from snap. Charts are shown only once loaded;
// every other phase shows the uploader.
func (d *Dashboard) View(snap models.Snapshot) View {
	v := View{
		Mode:        ModeUploader,
		Phase:       snap.Phase,
		Busy:        d.Busy(snap.Phase),
		Reason:      snap.Reason,
		UploadID:    snap.UploadID,
		Extension:   d.opts.Extension,
		DefaultRows: d.opts.DefaultRows,
	}

	if snap.File != nil {
		v.File = &FileView{
			Name:   snap.File.Name,
			SizeKB: fmt.Sprintf("%.1f", snap.File.SizeKB()),
		}
	}

	if snap.Phase == models.PhaseLoaded && snap.Result != nil {
		v.Mode = ModeCharts
		v.Label = snap.Result.FileName
		v.ChartCount = len(snap.Result.Charts)
		v.Cards = d.renderer.RenderAll(d.ThemedCharts(snap))
	}

	return v
}

// Busy reports whether new uploads are refused in phase.
func (d *Dashboard) Busy(phase models.Phase) bool {
	if phase == models.PhaseUploading {
		return true
	}
	return d.opts.Busy != nil && d.opts.Busy()
}

// ThemedCharts returns the loaded chart specs with the theme applied, in
// service order. It returns an empty list when nothing is loaded.
func (d *Dashboard) ThemedCharts(snap models.Snapshot) []models.ChartSpec {
	if snap.Result == nil {
		return []models.ChartSpec{}
	}
	return theme.MergeAll(snap.Result.Charts, d.theme)
}

// Render writes the full page for v.
func (d *Dashboard) Render(w io.Writer, v View) error {
	if err := d.tmpl.ExecuteTemplate(w, "page", v); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

// Fragment writes only the main region for v.
func (d *Dashboard) Fragment(w io.Writer, v View) error {
	if err := d.tmpl.ExecuteTemplate(w, "main", v); err != nil {
		return fmt.Errorf("rendering main region: %w", err)
	}
	return nil
}

// Watch calls fn with the current view, then with the view and notice of
// every state change until ctx is done.
func (d *Dashboard) Watch(ctx context.Context, fn func(View, string)) {
	id, events := d.store.Subscribe()
	defer d.store.Unsubscribe(id)

	fn(d.Current(), "")

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			fn(d.View(evt.Snapshot), evt.Notice)
		}
	}
}
