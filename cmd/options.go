package cmd

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/KaramelBytes/rentlens-cli/internal/analysis"
	"github.com/KaramelBytes/rentlens-cli/internal/baseline"
	"github.com/KaramelBytes/rentlens-cli/internal/chart"
)

func baselineOptions() baseline.Options {
	return baseline.Options{
		BaselineDir:   cfg.BaselineDir,
		AssetFile:     cfg.AssetFile,
		ExcludedUsers: cfg.ExcludedUsers,
		Tolerance:     cfg.AcceptanceTolerance,
		Sheet:         cfg.XLSXSheet,
	}
}

func analysisOptions() analysis.Options {
	opt := analysis.DefaultOptions()
	if cfg.UnitGroupMinCount >= 0 {
		opt.UnitGroupMinCount = cfg.UnitGroupMinCount
	}
	if cfg.PropertyMinCount >= 0 {
		opt.PropertyMinCount = cfg.PropertyMinCount
	}
	if cfg.SignificanceLevel > 0 {
		opt.SignificanceLevel = cfg.SignificanceLevel
	}
	if cfg.LowAcceptanceLimit > 0 {
		opt.LowAcceptanceLimit = cfg.LowAcceptanceLimit
	}
	if cfg.RollingWindow > 0 {
		opt.RollingWindow = cfg.RollingWindow
	}
	return opt
}

func trendOptions(window int) (chart.TrendOptions, error) {
	opt := chart.DefaultTrendOptions()
	opt.Title = chart.TrendTitle(window)
	opt.Start = time.Time{}
	if cfg.TrendStart != "" {
		t, err := time.Parse("2006-01-02", cfg.TrendStart)
		if err != nil {
			return opt, eris.Wrapf(err, "invalid trend_start %q (want YYYY-MM-DD)", cfg.TrendStart)
		}
		opt.Start = t
	}
	opt.YMin, opt.YMax = cfg.TrendYMin, cfg.TrendYMax
	return opt, nil
}

func newRenderer(mode chart.Mode) *chart.Renderer {
	return chart.NewRenderer(chart.Options{
		Dir:              cfg.FiguresDir,
		WidthIn:          cfg.ChartWidthIn,
		HeightIn:         cfg.ChartHeightIn,
		Mode:             mode,
		AnnotatedMarkets: cfg.AnnotatedMarkets,
	})
}

func loadDataset() (*baseline.Dataset, error) {
	ds, err := baseline.Load(baselineOptions())
	if err != nil {
		return nil, eris.Wrap(err, "load baseline")
	}
	return ds, nil
}

// mergeNames appends names from extra not already present, keeping order.
func mergeNames(base []string, extra ...[]string) []string {
	seen := make(map[string]struct{}, len(base))
	var out []string
	for _, group := range append([][]string{base}, extra...) {
		for _, n := range group {
			if _, ok := seen[n]; ok || n == "" {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
