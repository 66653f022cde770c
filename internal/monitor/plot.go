package monitor

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/formsense/internal/reps"
	"github.com/banshee-data/formsense/internal/session"
)

var (
	traceColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	limitColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	repColor   = color.RGBA{R: 44, G: 160, B: 44, A: 255}
)

// AnglePlot builds the angle-over-time plot of points. X is seconds since
// the first point. Accepted reps are marked where the count increases.
func AnglePlot(title string, points []session.TrailPoint, profile *reps.Profile) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Angle (°)"
	p.Y.Min, p.Y.Max = 0, 180

	if len(points) == 0 {
		return p, nil
	}
	t0 := points[0].Time
	xys := make(plotter.XYs, len(points))
	var repPts plotter.XYs
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.Time.Sub(t0).Seconds(), Y: pt.Angle}
		if i > 0 && pt.Count > points[i-1].Count {
			repPts = append(repPts, xys[i])
		}
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("angle line: %w", err)
	}
	line.Color = traceColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("angle", line)

	if profile != nil {
		end := xys[len(xys)-1].X
		for _, limit := range []float64{profile.MinAngle, profile.MaxAngle} {
			l, err := plotter.NewLine(plotter.XYs{{X: 0, Y: limit}, {X: end, Y: limit}})
			if err != nil {
				return nil, fmt.Errorf("limit line: %w", err)
			}
			l.Color = limitColor
			l.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(l)
		}
	}
	if len(repPts) > 0 {
		s, err := plotter.NewScatter(repPts)
		if err != nil {
			return nil, fmt.Errorf("rep markers: %w", err)
		}
		s.Color = repColor
		s.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add("rep", s)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	return p, nil
}

// WriteAngleTrace writes the AnglePlot of points to w as PNG.
func WriteAngleTrace(w io.Writer, title string, points []session.TrailPoint, profile *reps.Profile) error {
	p, err := AnglePlot(title, points, profile)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveAngleTrace writes the AnglePlot of points to path. The format follows
// the file extension.
func SaveAngleTrace(path, title string, points []session.TrailPoint, profile *reps.Profile) error {
	p, err := AnglePlot(title, points, profile)
	if err != nil {
		return err
	}
	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

