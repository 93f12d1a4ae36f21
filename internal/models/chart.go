// Package models contains domain types for the Data Explorer dashboard.
package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// ChartSpec is one chart specification returned by the analysis service.
// Data is kept verbatim for the renderer and never inspected here.
type ChartSpec struct {
	Data   json.RawMessage `json:"data"`
	Layout map[string]any  `json:"layout"`
	// Malformed is set when the service sent something that is not a chart
	// object at all. Such a spec is rendered as an error card.
	Malformed bool `json:"-"`
}

// UnmarshalJSON decodes a spec leniently: a missing or non-object layout
// becomes an empty map, and a non-object spec is flagged instead of failing
// the whole response.
func (c *ChartSpec) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data   json.RawMessage `json:"data"`
		Layout json.RawMessage `json:"layout"`
	}
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		*c = ChartSpec{Layout: make(map[string]any), Malformed: true}
		return nil
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	c.Malformed = false
	c.Data = nil
	if d := bytes.TrimSpace(raw.Data); len(d) > 0 && !bytes.Equal(d, []byte("null")) {
		c.Data = append(json.RawMessage(nil), d...)
	}

	c.Layout = make(map[string]any)
	if len(raw.Layout) > 0 {
		var layout map[string]any
		if err := json.Unmarshal(raw.Layout, &layout); err == nil && layout != nil {
			c.Layout = layout
		}
	}
	return nil
}

// VisualizationResult is the outcome of one successful upload or query.
type VisualizationResult struct {
	Charts     []ChartSpec `json:"charts"`
	FileName   string      `json:"fileName"`
	Source     string      `json:"source"`
	ReceivedAt time.Time   `json:"receivedAt"`
}
