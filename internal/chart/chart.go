// Package chart renders adjustment-over-time scatter charts and the rolling
// acceptance trend as PNG images.
package chart

import (
	"bytes"
	"image/color"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/rentlens-cli/internal/baseline"
	"github.com/KaramelBytes/rentlens-cli/internal/utils"
)

var (
	// ErrNoRecords is returned when a selection matches no plottable records.
	ErrNoRecords = eris.New("no records for selection")
	// ErrInvalidSelection is returned unless exactly one of asset or market is chosen.
	ErrInvalidSelection = eris.New("select exactly one asset or market")
)

const (
	// AdjustmentsDir is the figures subdirectory holding per-entity charts.
	AdjustmentsDir = "adj_over_time"
	// TrendFile is the rolling acceptance chart file name.
	TrendFile = "acc_over_time.png"
)

// Mode selects how adjustment points are colored.
type Mode int

const (
	// Simple draws every point in one color.
	Simple Mode = iota
	// Detailed colors asset charts by floor-plan group.
	Detailed
)

func (m Mode) String() string {
	if m == Detailed {
		return "detailed"
	}
	return "simple"
}

// ParseMode accepts "simple" or "detailed".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return Simple, nil
	case "detailed":
		return Detailed, nil
	}
	return Simple, eris.Errorf("chart: unknown mode %q (want simple or detailed)", s)
}

// Selection names the entity to chart. Exactly one field must be set.
type Selection struct {
	Asset  string
	Market string
}

func (s Selection) validate() (name string, byAsset bool, err error) {
	a, m := strings.TrimSpace(s.Asset), strings.TrimSpace(s.Market)
	switch {
	case a != "" && m == "":
		return a, true, nil
	case m != "" && a == "":
		return m, false, nil
	}
	return "", false, eris.Wrapf(ErrInvalidSelection, "asset=%q market=%q", s.Asset, s.Market)
}

// Options configures a Renderer.
type Options struct {
	// Dir is the figures directory every chart is written under.
	Dir string
	// WidthIn and HeightIn are the image size in inches.
	WidthIn, HeightIn float64
	Mode              Mode
	// AnnotatedMarkets get "Top/Bottom of Recommended Range" labels on the band.
	AnnotatedMarkets []string
}

// Renderer draws charts into Options.Dir.
type Renderer struct {
	opt Options
}

// NewRenderer applies size defaults of 10x6 inches.
func NewRenderer(opt Options) *Renderer {
	if opt.WidthIn <= 0 {
		opt.WidthIn = 10
	}
	if opt.HeightIn <= 0 {
		opt.HeightIn = 6
	}
	return &Renderer{opt: opt}
}

// Mode reports the renderer's coloring mode.
func (r *Renderer) Mode() Mode { return r.opt.Mode }

// AdjustmentsPath is where the chart for an entity name is written.
func AdjustmentsPath(dir, name string) string {
	return filepath.Join(dir, AdjustmentsDir, utils.SanitizeFileName(name)+".png")
}

// tab10 is the ten-color categorical palette used for floor-plan groups.
var tab10 = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
	color.RGBA{R: 140, G: 86, B: 75, A: 255},
	color.RGBA{R: 227, G: 119, B: 194, A: 255},
	color.RGBA{R: 127, G: 127, B: 127, A: 255},
	color.RGBA{R: 188, G: 189, B: 34, A: 255},
	color.RGBA{R: 23, G: 190, B: 207, A: 255},
}

// RenderAdjustments draws Diff over RecommendationDate for one asset or market
// and returns the written path. Re-rendering the same entity overwrites it.
func (r *Renderer) RenderAdjustments(recs []baseline.Record, sel Selection) (string, error) {
	p, name, err := r.AdjustmentsPlot(recs, sel)
	if err != nil {
		return "", err
	}
	path := AdjustmentsPath(r.opt.Dir, name)
	if err := r.save(p, path); err != nil {
		return "", err
	}
	return path, nil
}

// AdjustmentsPlot builds the adjustment chart without writing it.
func (r *Renderer) AdjustmentsPlot(recs []baseline.Record, sel Selection) (*plot.Plot, string, error) {
	name, byAsset, err := sel.validate()
	if err != nil {
		return nil, "", err
	}

	var subset []baseline.Record
	for _, rec := range recs {
		key := rec.MarketName
		if byAsset {
			key = rec.AssetName
		}
		if key == name && !rec.RecommendationDate.IsZero() && !math.IsNaN(rec.Diff) && !math.IsInf(rec.Diff, 0) {
			subset = append(subset, rec)
		}
	}
	if len(subset) == 0 {
		return nil, "", eris.Wrapf(ErrNoRecords, "chart: %s", name)
	}
	sort.SliceStable(subset, func(i, j int) bool {
		return subset[i].RecommendationDate.Before(subset[j].RecommendationDate)
	})

	p := plot.New()
	p.Title.Text = name + " Adjustments over Time"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Change from Recommended Rate"
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 2006"}
	p.Add(plotter.NewGrid())

	xmin := unix(subset[0].RecommendationDate)
	xmax := unix(subset[len(subset)-1].RecommendationDate)

	if band := meanBand(subset); band > 0 {
		poly, err := plotter.NewPolygon(plotter.XYs{{X: xmin, Y: -band}, {X: xmax, Y: -band}, {X: xmax, Y: band}, {X: xmin, Y: band}})
		if err != nil {
			return nil, "", eris.Wrap(err, "chart: band")
		}
		poly.Color = color.NRGBA{R: 255, A: 26}
		poly.LineStyle.Width = vg.Length(0)
		p.Add(poly)
		if r.annotated(name, byAsset) {
			mid := xmin + (xmax-xmin)/2
			labels, err := plotter.NewLabels(plotter.XYLabels{
				XYs:    []plotter.XY{{X: mid, Y: band}, {X: mid, Y: -band}},
				Labels: []string{"Top of Recommended Range", "Bottom of Recommended Range"},
			})
			if err != nil {
				return nil, "", eris.Wrap(err, "chart: band labels")
			}
			for i := range labels.TextStyle {
				labels.TextStyle[i].XAlign = draw.XCenter
				labels.TextStyle[i].Font.Size = vg.Points(8)
			}
			labels.TextStyle[0].YAlign = draw.YBottom
			labels.TextStyle[1].YAlign = draw.YTop
			p.Add(labels)
		}
	}

	zero, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: 0}, {X: xmax, Y: 0}})
	if err != nil {
		return nil, "", eris.Wrap(err, "chart: zero line")
	}
	zero.Color = color.Black
	zero.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(zero)

	if r.opt.Mode == Detailed && byAsset {
		if err := addByFloorPlan(p, subset); err != nil {
			return nil, "", err
		}
	} else {
		s, err := scatter(subset, tab10[0])
		if err != nil {
			return nil, "", err
		}
		p.Add(s)
	}
	return p, name, nil
}

func addByFloorPlan(p *plot.Plot, subset []baseline.Record) error {
	labels := make([]string, 0, len(subset))
	for _, rec := range subset {
		labels = append(labels, rec.FloorPlanGroupName)
	}
	plans, err := SortFloorPlans(labels)
	if err != nil {
		return eris.Wrap(err, "chart: floor plan order")
	}
	p.Legend.Top = true
	p.Legend.Add("Floor Plan Group")
	for i, fp := range plans {
		var group []baseline.Record
		for _, rec := range subset {
			if rec.FloorPlanGroupName == fp.Label {
				group = append(group, rec)
			}
		}
		s, err := scatter(group, tab10[i%len(tab10)])
		if err != nil {
			return err
		}
		p.Add(s)
		p.Legend.Add(fp.Label, s)
	}
	return nil
}

func scatter(recs []baseline.Record, c color.Color) (*plotter.Scatter, error) {
	xys := make(plotter.XYs, len(recs))
	for i, rec := range recs {
		xys[i] = plotter.XY{X: unix(rec.RecommendationDate), Y: rec.Diff}
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, eris.Wrap(err, "chart: scatter")
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(2.5)
	s.GlyphStyle.Color = c
	return s, nil
}

// meanBand is the mean distance from recc_rate down to recc_rate_lower,
// ignoring records where either is missing.
func meanBand(recs []baseline.Record) float64 {
	sum, n := 0.0, 0
	for _, rec := range recs {
		d := rec.ReccRate - rec.ReccRateLower
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		sum += d
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (r *Renderer) annotated(name string, byAsset bool) bool {
	if byAsset {
		return false
	}
	for _, m := range r.opt.AnnotatedMarkets {
		if m == name {
			return true
		}
	}
	return false
}

func (r *Renderer) save(p *plot.Plot, path string) error {
	w, err := p.WriterTo(vg.Length(r.opt.WidthIn)*vg.Inch, vg.Length(r.opt.HeightIn)*vg.Inch, "png")
	if err != nil {
		return eris.Wrap(err, "chart: encode png")
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return eris.Wrap(err, "chart: encode png")
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return eris.Wrap(err, "chart: create output dir")
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return eris.Wrapf(err, "chart: write %s", path)
	}
	zap.L().Info("chart written", zap.String("path", path), zap.Int("bytes", buf.Len()))
	return nil
}

func unix(t time.Time) float64 { return float64(t.Unix()) }
