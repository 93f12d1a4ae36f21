// Package render turns themed chart specifications into chart cards drawn
// by Plotly in the browser.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/data-explorer/client/internal/models"
)

// PlotConfig is the Plotly config passed with every chart.
var PlotConfig = map[string]any{
	"responsive":     true,
	"displayModeBar": false,
}

// Card is everything the page needs to draw one chart.
type Card struct {
	Index int
	// ID is the DOM element id of the plot container.
	ID    string
	Title string
	// Figure is the {"data": ..., "layout": ...} object passed to Plotly.
	Figure template.JS
	Config template.JS
	// Err is set when the spec could not be prepared; the page then shows
	// an error card in place of this chart only.
	Err string
}

// Renderer builds chart cards. It holds no state.
type Renderer struct {
	config template.JS
}

// New creates a Renderer.
func New() *Renderer {
	cfg, err := json.Marshal(PlotConfig)
	if err != nil {
		panic(err)
	}
	return &Renderer{config: template.JS(cfg)}
}

// Render prepares spec as the card at index (0-based). Failures are
// confined to the returned card.
func (r *Renderer) Render(index int, spec models.ChartSpec) (card Card) {
	card = Card{
		Index:  index,
		ID:     fmt.Sprintf("chart-%d", index),
		Title:  Title(spec, index),
		Config: r.config,
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("chart render panicked", "index", index, "panic", rec)
			card.Figure = ""
			card.Err = "This chart could not be displayed."
		}
	}()

	if spec.Malformed {
		card.Err = "The analysis service returned an invalid chart."
		return card
	}

	figure, err := encodeFigure(spec)
	if err != nil {
		slog.Warn("chart could not be encoded", "index", index, "error", err)
		card.Err = "This chart could not be displayed."
		return card
	}
	card.Figure = template.JS(figure)
	return card
}

// RenderAll renders every spec. One bad spec never affects the others.
func (r *Renderer) RenderAll(specs []models.ChartSpec) []Card {
	cards := make([]Card, len(specs))
	for i, spec := range specs {
		cards[i] = r.Render(i, spec)
	}
	return cards
}

// Title returns the card heading for spec: the layout title text, or
// "Chart N" when the layout has none.
func Title(spec models.ChartSpec, index int) string {
	switch t := spec.Layout["title"].(type) {
	case string:
		if t != "" {
			return t
		}
	case map[string]any:
		if text, ok := t["text"].(string); ok && text != "" {
			return text
		}
	}
	return fmt.Sprintf("Chart %d", index+1)
}

// encodeFigure marshals the figure passed to Plotly. Data goes through
// verbatim; an absent data list is sent as [].
func encodeFigure(spec models.ChartSpec) ([]byte, error) {
	data := spec.Data
	if len(bytes.TrimSpace(data)) == 0 {
		data = json.RawMessage(`[]`)
	}

	layout := spec.Layout
	if layout == nil {
		layout = map[string]any{}
	}

	return json.Marshal(struct {
		Data   json.RawMessage `json:"data"`
		Layout map[string]any  `json:"layout"`
	}{data, layout})
}
