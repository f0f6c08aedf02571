package dashboard_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/rentlens-cli/internal/baseline"
	"github.com/KaramelBytes/rentlens-cli/internal/chart"
	"github.com/KaramelBytes/rentlens-cli/internal/dashboard"
	"github.com/KaramelBytes/rentlens-cli/internal/manifest"
	"github.com/KaramelBytes/rentlens-cli/internal/utils"
)

func dataset() *baseline.Dataset {
	mk := func(asset, market, plan string, d int, diff float64) baseline.Record {
		return baseline.Record{
			JoinedRecord: baseline.JoinedRecord{
				AssetName:          asset,
				MarketName:         market,
				FloorPlanGroupName: plan,
				RecommendationDate: time.Date(2024, 8, d, 0, 0, 0, 0, time.UTC),
				ReccRate:           1500,
				ReccRateLower:      1460,
				ReccRateUpper:      1540,
			},
			Diff: diff,
		}
	}
	return &baseline.Dataset{Records: []baseline.Record{
		mk("Cortland Northlake", "Atlanta, GA", "2x1", 2, 10),
		mk("Cortland Northlake", "Atlanta, GA", "1x1", 1, -5),
		mk("Loft Lofts", "Phoenix-Mesa-Scottsdale, AZ", "Studio", 3, 0),
	}}
}

func newServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := dashboard.New(dataset(), dashboard.Options{
		FiguresDir: dir,
		Featured:   []string{"Phoenix-Mesa-Scottsdale, AZ"},
		Renderer:   chart.NewRenderer(chart.Options{Dir: dir, Mode: chart.Detailed, WidthIn: 4, HeightIn: 3}),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts, dir
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIndex(t *testing.T) {
	ts, _ := newServer(t)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	html := body(t, resp)
	assert.Contains(t, html, "RM Price Change Analysis")
	assert.Contains(t, html, ">Atlanta, GA</option>")
	assert.Contains(t, html, ">Cortland Northlake</option>")
	assert.Contains(t, html, "has not been generated yet")
	assert.Less(t, strings.Index(html, "Cortland Northlake</option>"), strings.Index(html, "Loft Lofts</option>"),
		"assets keep first-appearance order")
}

func TestAdjustments(t *testing.T) {
	ts, dir := newServer(t)

	resp, err := http.PostForm(ts.URL+"/adjustments", url.Values{"asset": {"Cortland Northlake"}, "market": {"Atlanta, GA"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	html := body(t, resp)
	assert.Contains(t, html, "/figures/adj_over_time/Cortland%20Northlake.png?v=")
	assert.Contains(t, html, "/figures/adj_over_time/Atlanta,%20GA.png?v=")
	assert.FileExists(t, filepath.Join(dir, chart.AdjustmentsDir, "Cortland Northlake.png"))

	img, err := http.Get(ts.URL + "/figures/adj_over_time/Cortland%20Northlake.png")
	require.NoError(t, err)
	img.Body.Close()
	assert.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/png", img.Header.Get("Content-Type"))
}

func TestAdjustments_ErrorStatuses(t *testing.T) {
	ts, _ := newServer(t)
	cases := []struct {
		form url.Values
		want int
		msg  string
	}{
		{url.Values{"market": {"Nowhere, ZZ"}}, http.StatusNotFound, "No records match"},
		{url.Values{}, http.StatusBadRequest, "Select an asset or a market"},
		{url.Values{"asset": {"Loft Lofts"}}, http.StatusUnprocessableEntity, "not in BxB form"},
	}
	for _, tc := range cases {
		resp, err := http.PostForm(ts.URL+"/adjustments", tc.form)
		require.NoError(t, err)
		assert.Equal(t, tc.want, resp.StatusCode, "%v", tc.form)
		assert.Contains(t, body(t, resp), tc.msg)
	}
}

func TestSelectionsAndMetrics(t *testing.T) {
	ts, _ := newServer(t)

	resp, err := http.Get(ts.URL + "/api/selections")
	require.NoError(t, err)
	var got struct {
		Markets []string `json:"markets"`
		Assets  []string `json:"assets"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	assert.Equal(t, []string{"Atlanta, GA", "Phoenix-Mesa-Scottsdale, AZ"}, got.Markets)
	assert.Equal(t, []string{"Cortland Northlake", "Loft Lofts"}, got.Assets)

	resp, err = http.PostForm(ts.URL+"/adjustments", url.Values{"market": {"Atlanta, GA"}})
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	metrics := body(t, resp)
	assert.Contains(t, metrics, `rentlens_chart_renders_total{mode="detailed",outcome="ok"} 1`)
	assert.Contains(t, metrics, "rentlens_chart_render_seconds_bucket")

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `"records":3`)
}

func TestIndex_ResolvesFiguresThroughLastRun(t *testing.T) {
	ts, dir := newServer(t)
	trend := filepath.Join(dir, "archive", "trend.png")
	require.NoError(t, utils.SafeWriteFile(trend, []byte("png")))

	run := manifest.New(dir, manifest.Inputs{Mode: "simple"})
	run.AddArtifact(manifest.KindTrend, "acc_over_time", trend)
	run.AddFailure("Phoenix-Mesa-Scottsdale, AZ", errors.New("no records"))
	require.NoError(t, run.Save())

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	html := body(t, resp)
	assert.Contains(t, html, "Figures from run "+run.ID)
	assert.Contains(t, html, `src="/figures/archive/trend.png"`)
	assert.Contains(t, html, "Phoenix-Mesa-Scottsdale, AZ was skipped by the last run: no records")
	assert.Contains(t, html, "Market table has not been generated yet")
}
