package chart_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rentlens-cli/internal/analysis"
	"github.com/KaramelBytes/rentlens-cli/internal/baseline"
	"github.com/KaramelBytes/rentlens-cli/internal/chart"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func records() []baseline.Record {
	mk := func(asset, market, plan string, d int, diff float64) baseline.Record {
		return baseline.Record{
			JoinedRecord: baseline.JoinedRecord{
				AssetName:          asset,
				MarketName:         market,
				FloorPlanGroupName: plan,
				RecommendationDate: time.Date(2024, 7, d, 0, 0, 0, 0, time.UTC),
				ReccRate:           1500,
				ReccRateLower:      1450,
				ReccRateUpper:      1550,
			},
			Diff: diff,
		}
	}
	return []baseline.Record{
		mk("Cortland Northlake", "Atlanta, GA", "2x2", 3, 12),
		mk("Cortland Northlake", "Atlanta, GA", "1x1", 1, -4),
		mk("Cortland Northlake", "Atlanta, GA", "2x1", 2, 0),
		mk("Cortland 3131", "Denver-Aurora-Lakewood, CO", "Studio", 5, 30),
	}
}

func TestParseFloorPlan(t *testing.T) {
	fp, err := chart.ParseFloorPlan("2x1.5")
	require.NoError(t, err)
	assert.Equal(t, 2.0, fp.Bedrooms)
	assert.Equal(t, 1.5, fp.Bathrooms)

	_, err = chart.ParseFloorPlan("Studio")
	assert.ErrorIs(t, err, chart.ErrMalformedFloorPlan)
}

func TestSortFloorPlans(t *testing.T) {
	for _, in := range [][]string{
		{"2x2", "1x1", "2x1"},
		{"2x1", "2x2", "1x1", "1x1"},
		{"1x1", "2x1", "2x2"},
	} {
		plans, err := chart.SortFloorPlans(in)
		require.NoError(t, err)
		var got []string
		for _, p := range plans {
			got = append(got, p.Label)
		}
		assert.Equal(t, []string{"1x1", "2x1", "2x2"}, got, "input %v", in)
	}
}

func TestParseMode(t *testing.T) {
	m, err := chart.ParseMode("Detailed")
	require.NoError(t, err)
	assert.Equal(t, chart.Detailed, m)
	assert.Equal(t, "detailed", m.String())

	m, err = chart.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, chart.Simple, m)

	_, err = chart.ParseMode("fancy")
	assert.Error(t, err)
}

func TestRenderAdjustments_WritesPNG(t *testing.T) {
	dir := t.TempDir()
	r := chart.NewRenderer(chart.Options{Dir: dir, Mode: chart.Detailed, WidthIn: 4, HeightIn: 3})

	path, err := r.RenderAdjustments(records(), chart.Selection{Asset: "Cortland Northlake"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, chart.AdjustmentsDir, "Cortland Northlake.png"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))

	// re-render overwrites in place
	again, err := r.RenderAdjustments(records(), chart.Selection{Asset: "Cortland Northlake"})
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestRenderAdjustments_MarketIsAnnotatedAndSingleColor(t *testing.T) {
	dir := t.TempDir()
	r := chart.NewRenderer(chart.Options{
		Dir:              dir,
		Mode:             chart.Detailed,
		WidthIn:          4,
		HeightIn:         3,
		AnnotatedMarkets: []string{"Denver-Aurora-Lakewood, CO"},
	})
	// Studio would be malformed in asset mode; market charts ignore floor plans.
	path, err := r.RenderAdjustments(records(), chart.Selection{Market: "Denver-Aurora-Lakewood, CO"})
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestRenderAdjustments_Errors(t *testing.T) {
	r := chart.NewRenderer(chart.Options{Dir: t.TempDir(), Mode: chart.Detailed})

	_, err := r.RenderAdjustments(records(), chart.Selection{Market: "Nowhere, ZZ"})
	assert.ErrorIs(t, err, chart.ErrNoRecords)

	_, err = r.RenderAdjustments(records(), chart.Selection{})
	assert.ErrorIs(t, err, chart.ErrInvalidSelection)

	_, err = r.RenderAdjustments(records(), chart.Selection{Asset: "a", Market: "b"})
	assert.ErrorIs(t, err, chart.ErrInvalidSelection)

	_, err = r.RenderAdjustments(records(), chart.Selection{Asset: "Cortland 3131"})
	assert.ErrorIs(t, err, chart.ErrMalformedFloorPlan)

	simple := chart.NewRenderer(chart.Options{Dir: t.TempDir(), Mode: chart.Simple})
	_, err = simple.RenderAdjustments(records(), chart.Selection{Asset: "Cortland 3131"})
	assert.NoError(t, err, "simple mode does not parse floor plans")
}

func TestRenderTrend(t *testing.T) {
	dir := t.TempDir()
	r := chart.NewRenderer(chart.Options{Dir: dir, WidthIn: 4, HeightIn: 3})
	var pts []analysis.TrendPoint
	for i := 0; i < 10; i++ {
		pts = append(pts, analysis.TrendPoint{
			Date:      time.Date(2024, 5, 28+i, 0, 0, 0, 0, time.UTC),
			DailyRate: 0.6,
			Rolling:   0.55 + float64(i)/100,
		})
	}

	path, err := r.RenderTrend(pts, chart.DefaultTrendOptions())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, chart.TrendFile), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))

	opt := chart.DefaultTrendOptions()
	opt.Start = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = r.RenderTrend(pts, opt)
	assert.ErrorIs(t, err, chart.ErrNoRecords)
}
