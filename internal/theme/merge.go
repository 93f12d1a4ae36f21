package theme

import (
	"regexp"

	"github.com/data-explorer/client/internal/models"
)

// axisKey matches Plotly cartesian axis objects: xaxis, yaxis, xaxis2, ...
var axisKey = regexp.MustCompile(`^[xy]axis[0-9]*$`)

// Merge returns a copy of spec with the theme applied to its layout.
//
// Theme values win for the keys the theme controls; every other layout key
// is carried over. Font and axis objects are merged key by key so caller
// values such as an axis title or font size survive. spec is not modified.
func Merge(spec models.ChartSpec, t Theme) models.ChartSpec {
	layout := make(map[string]any, len(spec.Layout)+6)
	for k, v := range spec.Layout {
		layout[k] = v
	}

	layout["autosize"] = true
	layout["paper_bgcolor"] = t.PaperBackground
	layout["plot_bgcolor"] = t.PlotBackground

	font := copyObject(spec.Layout["font"])
	font["color"] = t.FontColor
	font["family"] = t.FontFamily
	layout["font"] = font

	for _, key := range axisKeys(spec.Layout) {
		axis := copyObject(spec.Layout[key])
		axis["gridcolor"] = t.GridColor
		axis["zerolinecolor"] = t.ZeroLineColor
		layout[key] = axis
	}

	return models.ChartSpec{
		Data:      spec.Data,
		Layout:    layout,
		Malformed: spec.Malformed,
	}
}

// MergeAll themes every spec in order.
func MergeAll(specs []models.ChartSpec, t Theme) []models.ChartSpec {
	out := make([]models.ChartSpec, len(specs))
	for i, s := range specs {
		out[i] = Merge(s, t)
	}
	return out
}

// axisKeys returns xaxis and yaxis plus any numbered axes in layout.
func axisKeys(layout map[string]any) []string {
	keys := []string{"xaxis", "yaxis"}
	for k := range layout {
		if k != "xaxis" && k != "yaxis" && axisKey.MatchString(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// copyObject returns a shallow copy of v when it is an object, or an empty
// map for anything else.
func copyObject(v any) map[string]any {
	src, ok := v.(map[string]any)
	out := make(map[string]any, len(src)+2)
	if !ok {
		return out
	}
	for k, val := range src {
		out[k] = val
	}
	return out
}
