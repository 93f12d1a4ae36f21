// Package theme applies the dashboard's visual theme to chart specifications.
package theme

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Theme holds the layout values the dashboard forces on every chart.
type Theme struct {
	PaperBackground string `yaml:"paper_bgcolor" json:"paperBackground"`
	PlotBackground  string `yaml:"plot_bgcolor" json:"plotBackground"`
	FontColor       string `yaml:"font_color" json:"fontColor"`
	FontFamily      string `yaml:"font_family" json:"fontFamily"`
	GridColor       string `yaml:"grid_color" json:"gridColor"`
	ZeroLineColor   string `yaml:"zeroline_color" json:"zeroLineColor"`
}

// Default returns the dark glass theme used by the dashboard.
func Default() Theme {
	return Theme{
		PaperBackground: "rgba(0,0,0,0)",
		PlotBackground:  "rgba(0,0,0,0)",
		FontColor:       "#e6eefc",
		FontFamily:      "Inter, sans-serif",
		GridColor:       "rgba(255,255,255,0.06)",
		ZeroLineColor:   "rgba(255,255,255,0.03)",
	}
}

// Load reads a YAML theme file. Keys missing from the file keep their
// default values.
func Load(path string) (Theme, error) {
	t := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("reading theme file: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Default(), fmt.Errorf("parsing theme file: %w", err)
	}

	return t, nil
}

// LoadOrDefault loads path when set and falls back to Default otherwise.
func LoadOrDefault(path string) (Theme, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
