package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/data-explorer/client/internal/models"
	"github.com/data-explorer/client/internal/state"
	"github.com/data-explorer/client/internal/theme"
	"github.com/data-explorer/client/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboard(t *testing.T) (*Dashboard, *state.Store) {
	t.Helper()
	tmpl, err := web.Templates()
	require.NoError(t, err)
	store := state.New()
	return New(store, theme.Default(), nil, tmpl, Options{Extension: ".csv", DefaultRows: 1000}), store
}

func chartSpec(t *testing.T, raw string) models.ChartSpec {
	t.Helper()
	var spec models.ChartSpec
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))
	return spec
}

func loaded(t *testing.T, store *state.Store, name string, specs ...models.ChartSpec) {
	t.Helper()
	id, err := store.Begin(models.NewUploadedFile(name, []byte("a,b\n1,2\n")), name)
	require.NoError(t, err)
	require.True(t, store.Complete(id, specs))
}

func TestView_ModeByPhase(t *testing.T) {
	d, store := newDashboard(t)

	v := d.Current()
	assert.Equal(t, ModeUploader, v.Mode)
	assert.False(t, v.Busy)
	assert.Nil(t, v.File)

	id, err := store.Begin(models.NewUploadedFile("sales.csv", make([]byte, 2048)), "sales.csv")
	require.NoError(t, err)
	v = d.Current()
	assert.Equal(t, ModeUploader, v.Mode)
	assert.True(t, v.Busy)
	require.NotNil(t, v.File)
	assert.Equal(t, "sales.csv", v.File.Name)
	assert.Equal(t, "2.0", v.File.SizeKB)

	require.True(t, store.Complete(id, []models.ChartSpec{chartSpec(t, `{"data":[],"layout":{"title":"Revenue"}}`)}))
	v = d.Current()
	assert.Equal(t, ModeCharts, v.Mode)
	assert.False(t, v.Busy)
	assert.Equal(t, 1, v.ChartCount)
	require.Len(t, v.Cards, 1)
	assert.Equal(t, "Revenue", v.Cards[0].Title)
	assert.Equal(t, "sales.csv", v.Label)
}

func TestView_FailedShowsUploaderWithReason(t *testing.T) {
	d, _ := newDashboard(t)
	v := d.View(models.Snapshot{Phase: models.PhaseFailed, Reason: "parse error"})
	assert.Equal(t, ModeUploader, v.Mode)
	assert.Equal(t, "parse error", v.Reason)
}

func TestView_ZeroChartsStillChartsMode(t *testing.T) {
	d, store := newDashboard(t)
	loaded(t, store, "empty.csv")

	v := d.Current()
	assert.Equal(t, ModeCharts, v.Mode)
	assert.Equal(t, 0, v.ChartCount)
	assert.Empty(t, v.Cards)
}

func TestThemedCharts_AppliesTheme(t *testing.T) {
	d, store := newDashboard(t)
	loaded(t, store, "sales.csv",
		chartSpec(t, `{"data":[{"type":"bar"}],"layout":{"title":"A","font":{"size":14}}}`),
		chartSpec(t, `{"data":[],"layout":{"title":"B"}}`),
	)

	specs := d.ThemedCharts(store.Snapshot())
	require.Len(t, specs, 2)
	assert.Equal(t, "A", specs[0].Layout["title"])
	assert.Equal(t, "B", specs[1].Layout["title"])

	font, ok := specs[0].Layout["font"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, theme.Default().FontColor, font["color"])
	assert.Equal(t, 14.0, font["size"])
	assert.Equal(t, true, specs[1].Layout["autosize"])

	// The stored specs are not modified.
	raw := store.Snapshot().Result.Charts[0].Layout
	_, themed := raw["paper_bgcolor"]
	assert.False(t, themed)
}

func TestThemedCharts_NothingLoaded(t *testing.T) {
	d, _ := newDashboard(t)
	specs := d.ThemedCharts(models.Snapshot{Phase: models.PhaseIdle})
	assert.NotNil(t, specs)
	assert.Empty(t, specs)
}

func TestRender_Uploader(t *testing.T) {
	d, store := newDashboard(t)
	_, err := store.Begin(models.NewUploadedFile("big.csv", make([]byte, 1536)), "big.csv")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, d.Render(&buf, d.Current()))
	html := buf.String()

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, `id="main"`)
	assert.Contains(t, html, "big.csv")
	assert.Contains(t, html, "1.5 KB")
	assert.Contains(t, html, "please wait")
	assert.Contains(t, html, `accept=".csv"`)
	assert.NotContains(t, html, "chart-spec")
}

func TestFragment_Charts(t *testing.T) {
	d, store := newDashboard(t)
	loaded(t, store, "sales.csv",
		chartSpec(t, `{"data":[{"type":"bar","y":[1,2]}],"layout":{"title":"Revenue"}}`),
		chartSpec(t, `[1,2]`),
	)

	var buf bytes.Buffer
	require.NoError(t, d.Fragment(&buf, d.Current()))
	html := buf.String()

	assert.NotContains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "Revenue")
	assert.Contains(t, html, `id="chart-0"`)
	assert.Contains(t, html, `data-target="chart-0"`)
	assert.Contains(t, html, `"displayModeBar":false`)
	assert.Contains(t, html, "Chart 2")
	assert.Contains(t, html, "The analysis service returned an invalid chart.")
	assert.Equal(t, 1, strings.Count(html, `class="chart-spec"`))
	assert.Contains(t, html, "Upload new file")
}

func TestFragment_ZeroCharts(t *testing.T) {
	d, store := newDashboard(t)
	loaded(t, store, "empty.csv")

	var buf bytes.Buffer
	require.NoError(t, d.Fragment(&buf, d.Current()))
	assert.Contains(t, buf.String(), "returned no charts")
}

func TestWatch_DeliversViews(t *testing.T) {
	d, store := newDashboard(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type update struct {
		view   View
		notice string
	}
	updates := make(chan update, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Watch(ctx, func(v View, notice string) {
			updates <- update{v, notice}
		})
	}()

	got := make([]update, 0, 4)
	select {
	case u := <-updates:
		got = append(got, u)
	case <-time.After(time.Second):
		t.Fatal("no initial view")
	}

	id, err := store.Begin(models.NewUploadedFile("big.csv", []byte("x")), "big.csv")
	require.NoError(t, err)
	require.True(t, store.Fail(id, "parse error"))

	for len(got) < 4 {
		select {
		case u := <-updates:
			got = append(got, u)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d updates", len(got))
		}
	}

	assert.Equal(t, models.PhaseIdle, got[0].view.Phase)
	assert.True(t, got[1].view.Busy)
	assert.Equal(t, models.PhaseFailed, got[2].view.Phase)
	assert.Equal(t, "parse error", got[2].notice)
	assert.Equal(t, models.PhaseIdle, got[3].view.Phase)
	assert.Empty(t, got[3].notice)

	cancel()
	<-done
	assert.Equal(t, 0, store.Subscribers())
}
