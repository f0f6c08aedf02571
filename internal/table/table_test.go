package table_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/rentlens-cli/internal/analysis"
	"github.com/KaramelBytes/rentlens-cli/internal/table"
)

func marketRows() []analysis.MarketRow {
	return []analysis.MarketRow{
		{
			MarketName:          "Denver-Aurora-Lakewood, CO",
			Count:               1200,
			AcceptanceRate:      0.71234,
			MedianAdjustment:    1234.5,
			NumAssets:           4,
			EarliestAcquisition: time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{MarketName: "Phoenix|Mesa", AcceptanceRate: 0.5, MedianAdjustment: math.NaN()},
	}
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "71.23%", table.Percent(0.71234))
	assert.Equal(t, "1,234.50", table.Amount(1234.5))
	assert.Equal(t, "-3.00", table.Amount(-3))
	assert.Equal(t, "n/a", table.Amount(math.NaN()))
	assert.Equal(t, "", table.Date(time.Time{}))
}

func TestMarketTable(t *testing.T) {
	tb := table.MarketTable(marketRows())
	assert.Equal(t, table.MarketName, tb.Name)
	require.Len(t, tb.Rows, 2)
	assert.Equal(t, []string{"Denver-Aurora-Lakewood, CO", "4", "2019-03-15", "71.23%", "1,234.50"}, tb.Rows[0])
	assert.Equal(t, "", tb.Rows[1][2])
}

func TestPropertyTable(t *testing.T) {
	tb := table.PropertyTable([]analysis.PropertyRow{{AssetName: "Cortland 3131", User: "RM Two", AcceptanceRate: 0.4, MedianAdjustment: 25}})
	assert.Equal(t, "(Properties with Significantly Low Acceptance Rate)", tb.Subtitle)
	assert.Equal(t, []string{"Property", "RM", "Acceptance Rate", "Median Adjustment"}, tb.Headers)
	assert.Equal(t, []string{"Cortland 3131", "RM Two", "40.00%", "25.00"}, tb.Rows[0])
}

func TestMarkdown(t *testing.T) {
	md := table.MarketTable(marketRows()).Markdown()
	assert.Contains(t, md, "### Price Change Metrics by Market")
	assert.Contains(t, md, "| Market | # Assets |")
	assert.Contains(t, md, "| *Denver-Aurora-Lakewood, CO* | 4 |")
	assert.Contains(t, md, "*Phoenix/Mesa*", "pipes are escaped")

	empty := table.FloorPlanTable(nil).Markdown()
	assert.Contains(t, empty, "_no rows_")
}

func TestTerminal(t *testing.T) {
	out := table.FloorPlanTable([]analysis.GroupRow{{FloorPlanGroupName: "2x2", AcceptanceRate: 0.6, MedianAdjustment: 5}}).Terminal()
	assert.Contains(t, out, "Price Change Metrics by Unit Group")
	assert.Contains(t, out, "60.00%")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acc_bymarket.xlsx")
	tb := table.MarketTable(marketRows())
	require.NoError(t, tb.WriteXLSX(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(table.MarketName)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 5)
	assert.Equal(t, "Price Change Metrics by Market", rows[0][0])
	assert.Equal(t, tb.Headers, rows[2])
	assert.Equal(t, tb.Rows[0], rows[3])
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "low_acc_byproperty.png")
	tb := table.PropertyTable([]analysis.PropertyRow{{AssetName: "Cortland 3131", User: "RM Two", AcceptanceRate: 0.4}})
	require.NoError(t, tb.WritePNG(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))
}
