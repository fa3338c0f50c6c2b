package dashboard

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/tanknav/internal/httputil"
	"github.com/banshee-data/tanknav/internal/state"
)

// handlePage renders speed, position deltas and the trajectory with the
// current obstacle clusters as one echarts page.
func (d *Dashboard) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	var buf bytes.Buffer
	if err := renderPage(&buf, d.snapshot()); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render dashboard: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func renderPage(buf *bytes.Buffer, t state.Telemetry) error {
	page := components.NewPage()
	page.AddCharts(speedChart(t), deltaChart(t), trajectoryChart(t))
	return page.Render(buf)
}

func sampleAxis(n int) []string {
	x := make([]string, n)
	for i := range x {
		x[i] = strconv.Itoa(i)
	}
	return x
}

func lineData(vs []float64) []opts.LineData {
	out := make([]opts.LineData, len(vs))
	for i, v := range vs {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

func speedChart(t state.Telemetry) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Speed (km/h)",
			Subtitle: fmt.Sprintf("target %.1f km/h, updated %s", t.Config.TargetSpeedKmh, t.Time.Format(time.RFC3339)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	line.SetXAxis(sampleAxis(len(t.Speeds))).AddSeries("speed", lineData(t.Speeds))
	return line
}

func deltaChart(t state.Telemetry) *charts.Line {
	n := len(t.DeltaX)
	if len(t.DeltaZ) > n {
		n = len(t.DeltaZ)
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px"}),
		charts.WithTitleOpts(opts.Title{Title: "Position delta per sample"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(sampleAxis(n)).
		AddSeries("dx", lineData(t.DeltaX)).
		AddSeries("dz", lineData(t.DeltaZ))
	return line
}

func trajectoryChart(t state.Telemetry) *charts.Scatter {
	path := make([]opts.ScatterData, 0, len(t.Positions))
	for _, p := range t.Positions {
		path = append(path, opts.ScatterData{Value: []interface{}{p.X, p.Z}})
	}
	var centroids, points []opts.ScatterData
	for _, c := range t.Clusters {
		centroids = append(centroids, opts.ScatterData{
			Name:  c.ID,
			Value: []interface{}{c.Centroid.X, c.Centroid.Z},
		})
		for _, p := range c.Points {
			points = append(points, opts.ScatterData{Value: []interface{}{p.X, p.Z}})
		}
	}

	subtitle := fmt.Sprintf("%d clusters", len(t.Clusters))
	if t.LastCommand != nil {
		subtitle += fmt.Sprintf(", last command %s (%.2f)", t.LastCommand.Move, t.LastCommand.Weight)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "720px", Height: "720px"}),
		charts.WithTitleOpts(opts.Title{Title: "Trajectory and obstacles", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Z (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("position", path, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	scatter.AddSeries("obstacle points", points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	scatter.AddSeries("cluster centroids", centroids, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	return scatter
}
