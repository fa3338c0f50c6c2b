package dashboard

import (
	"fmt"
	"image/color"
	"io"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/tanknav/internal/httputil"
	"github.com/banshee-data/tanknav/internal/state"
)

// TrajectorySize is the edge length of the square trajectory image.
const TrajectorySize = 6 * vg.Inch

func (d *Dashboard) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := WriteTrajectoryPNG(w, d.snapshot()); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render trajectory: %v", err))
	}
}

// WriteTrajectoryPNG plots the position history and the current obstacle
// points on the ground plane.
func WriteTrajectoryPNG(w io.Writer, t state.Telemetry) error {
	p := plot.New()
	p.Title.Text = "Trajectory"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Z (m)"
	p.Add(plotter.NewGrid())

	if len(t.Positions) > 0 {
		path := make(plotter.XYs, len(t.Positions))
		for i, v := range t.Positions {
			path[i] = plotter.XY{X: v.X, Y: v.Z}
		}
		line, err := plotter.NewLine(path)
		if err != nil {
			return fmt.Errorf("trajectory line: %w", err)
		}
		line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("position", line)
	}

	var obstacles plotter.XYs
	for _, c := range t.Clusters {
		for _, pt := range c.Points {
			obstacles = append(obstacles, plotter.XY{X: pt.X, Y: pt.Z})
		}
	}
	if len(obstacles) > 0 {
		sc, err := plotter.NewScatter(obstacles)
		if err != nil {
			return fmt.Errorf("obstacle scatter: %w", err)
		}
		sc.GlyphStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("obstacles", sc)
	}

	wt, err := p.WriterTo(TrajectorySize, TrajectorySize, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
