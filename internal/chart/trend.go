package chart

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/rentlens-cli/internal/analysis"
)

// TrendOptions fixes the trend chart's visible window.
type TrendOptions struct {
	// Start hides earlier days; the zero time shows the whole series.
	Start time.Time
	// YMin and YMax bound the acceptance axis (fractions, e.g. 0.4 and 0.8).
	YMin, YMax float64
	Title      string
}

// DefaultTrendOptions matches the published acceptance trend.
func DefaultTrendOptions() TrendOptions {
	return TrendOptions{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		YMin:  0.4,
		YMax:  0.8,
		Title: TrendTitle(60),
	}
}

// RenderTrend draws the rolling acceptance series to TrendFile.
func (r *Renderer) RenderTrend(points []analysis.TrendPoint, opt TrendOptions) (string, error) {
	p, err := TrendPlot(points, opt)
	if err != nil {
		return "", err
	}
	path := filepath.Join(r.opt.Dir, TrendFile)
	if err := r.save(p, path); err != nil {
		return "", err
	}
	return path, nil
}

// TrendPlot builds the trend chart without writing it.
func TrendPlot(points []analysis.TrendPoint, opt TrendOptions) (*plot.Plot, error) {
	var xys plotter.XYs
	for _, pt := range points {
		if pt.Date.Before(opt.Start) || math.IsNaN(pt.Rolling) {
			continue
		}
		xys = append(xys, plotter.XY{X: unix(pt.Date), Y: pt.Rolling})
	}
	if len(xys) == 0 {
		return nil, eris.Wrap(ErrNoRecords, "chart: acceptance trend")
	}

	p := plot.New()
	p.Title.Text = opt.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Accepted Rate (%)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 2006"}
	if !opt.Start.IsZero() {
		p.X.Min = unix(opt.Start)
	} else {
		p.X.Min = xys[0].X
	}
	p.X.Max = xys[len(xys)-1].X
	if opt.YMax > opt.YMin {
		p.Y.Min, p.Y.Max = opt.YMin, opt.YMax
		p.Y.Tick.Marker = percentTicks(opt.YMin, opt.YMax)
	}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, eris.Wrap(err, "chart: trend line")
	}
	line.Color = tab10[0]
	line.Width = vg.Points(2)
	p.Add(line)
	return p, nil
}

// TrendTitle names the trend chart after its rolling window.
func TrendTitle(window int) string {
	return fmt.Sprintf("%d-Day Rolling Average of Accepted Rate Over Time", window)
}

// percentTicks labels every 10 points between lo and hi as a percentage.
func percentTicks(lo, hi float64) plot.ConstantTicks {
	var ticks plot.ConstantTicks
	for v := math.Ceil(lo*10-1e-9) / 10; v <= hi+1e-9; v += 0.1 {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.0f%%", v*100)})
	}
	return ticks
}
