// Package monitor renders debug views of a session: rep-count and angle
// charts as go-echarts HTML, and angle traces as PNG via gonum/plot.
package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/formsense/internal/form"
	"github.com/banshee-data/formsense/internal/httputil"
	"github.com/banshee-data/formsense/internal/reps"
	"github.com/banshee-data/formsense/internal/session"
)

// RepCountsChart renders one bar per exercise, sorted by name.
func RepCountsChart(counts map[string]int) *charts.Bar {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	data := make([]opts.BarData, len(names))
	for i, name := range names {
		data[i] = opts.BarData{Value: counts[name]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Rep counts", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Rep counts", Subtitle: time.Now().Format(time.RFC3339)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("reps", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// AngleChart plots the rep-signal angle over time, with the profile's
// min and max angles as mark lines when a profile is given.
func AngleChart(exercise string, points []session.TrailPoint, profile *reps.Profile) *charts.Line {
	x := make([]string, len(points))
	y := make([]opts.LineData, len(points))
	for i, p := range points {
		x[i] = p.Time.Format("15:04:05.000")
		y[i] = opts.LineData{Value: p.Angle}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Rep angle", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: exercise, Subtitle: fmt.Sprintf("points=%d", len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "angle (°)", Min: 0, Max: 180}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false), ShowSymbol: opts.Bool(false)}),
	}
	if profile != nil {
		seriesOpts = append(seriesOpts, charts.WithMarkLineNameYAxisItemOpts(
			opts.MarkLineNameYAxisItem{Name: "min", YAxis: profile.MinAngle},
			opts.MarkLineNameYAxisItem{Name: "max", YAxis: profile.MaxAngle},
		))
	}
	line.SetXAxis(x).AddSeries("angle", y, seriesOpts...)
	return line
}

// Handlers serves the debug charts for one session.
type Handlers struct {
	Session  *session.Session
	Profiles map[string]reps.Profile
}

func render(w http.ResponseWriter, c components.Charter) {
	page := components.NewPage()
	page.AddCharts(c)
	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// ServeRepChart renders the current counts.
func (h *Handlers) ServeRepChart(w http.ResponseWriter, r *http.Request) {
	render(w, RepCountsChart(h.Session.Counts()))
}

func (h *Handlers) trail(w http.ResponseWriter, r *http.Request) (string, []session.TrailPoint, *reps.Profile, bool) {
	exercise := form.NormalizeName(r.URL.Query().Get("exercise"))
	if exercise == "" {
		httputil.BadRequest(w, "exercise is required")
		return "", nil, nil, false
	}
	var profile *reps.Profile
	if p, ok := h.Profiles[exercise]; ok {
		profile = &p
	}
	return exercise, h.Session.Trail(exercise), profile, true
}

// ServeAngleChart renders the angle trail of ?exercise=.
func (h *Handlers) ServeAngleChart(w http.ResponseWriter, r *http.Request) {
	exercise, points, profile, ok := h.trail(w, r)
	if !ok {
		return
	}
	render(w, AngleChart(exercise, points, profile))
}

// ServeAnglePNG renders the angle trail of ?exercise= as a PNG.
func (h *Handlers) ServeAnglePNG(w http.ResponseWriter, r *http.Request) {
	exercise, points, profile, ok := h.trail(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := WriteAngleTrace(&buf, exercise, points, profile); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("plot error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
