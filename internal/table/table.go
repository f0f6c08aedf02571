// Package table formats acceptance aggregates as titled tables and writes
// them as PNG images, XLSX workbooks, Markdown or styled terminal output.
package table

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/rentlens-cli/internal/analysis"
)

// File stems of the published tables.
const (
	FloorPlanName = "acc_by_unitgroup"
	MarketName    = "acc_bymarket"
	PropertyName  = "low_acc_byproperty"
)

var printer = message.NewPrinter(language.English)

// Table is a rendered-ready table: every cell is already formatted text.
type Table struct {
	// Name is the file stem used when the table is written.
	Name              string
	Title             string
	Subtitle          string
	Headers           []string
	Rows              [][]string
	ItalicFirstColumn bool
}

// Percent formats a fraction as a percentage with two decimals.
func Percent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

// Amount formats a number with thousands separators and two decimals.
func Amount(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return printer.Sprintf("%.2f", v)
}

// Date formats a day, leaving unknown dates blank.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// FloorPlanTable lists acceptance by unit group.
func FloorPlanTable(rows []analysis.GroupRow) *Table {
	t := &Table{
		Name:              FloorPlanName,
		Title:             "Price Change Metrics by Unit Group",
		Headers:           []string{"Unit Group", "Acceptance Rate", "Median Adjustment"},
		ItalicFirstColumn: true,
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.FloorPlanGroupName, Percent(r.AcceptanceRate), Amount(r.MedianAdjustment)})
	}
	return t
}

// MarketTable lists acceptance by market.
func MarketTable(rows []analysis.MarketRow) *Table {
	t := &Table{
		Name:              MarketName,
		Title:             "Price Change Metrics by Market",
		Headers:           []string{"Market", "# Assets", "Earliest Acquisition", "Acceptance Rate", "Median Adjustment"},
		ItalicFirstColumn: true,
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.MarketName,
			printer.Sprintf("%d", r.NumAssets),
			Date(r.EarliestAcquisition),
			Percent(r.AcceptanceRate),
			Amount(r.MedianAdjustment),
		})
	}
	return t
}

// PropertyTable lists the properties with significantly low acceptance.
func PropertyTable(rows []analysis.PropertyRow) *Table {
	t := &Table{
		Name:              PropertyName,
		Title:             "Price Change Metrics by Property",
		Subtitle:          "(Properties with Significantly Low Acceptance Rate)",
		Headers:           []string{"Property", "RM", "Acceptance Rate", "Median Adjustment"},
		ItalicFirstColumn: true,
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.AssetName, r.User, Percent(r.AcceptanceRate), Amount(r.MedianAdjustment)})
	}
	return t
}

// Markdown renders a GitHub-style table under a heading.
func (t *Table) Markdown() string {
	var b strings.Builder
	b.WriteString("### " + t.Title + "\n")
	if t.Subtitle != "" {
		b.WriteString(t.Subtitle + "\n")
	}
	b.WriteString("\n")
	if len(t.Rows) == 0 {
		b.WriteString("_no rows_\n")
		return b.String()
	}
	b.WriteString("| " + strings.Join(escapeAll(t.Headers), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")
	for _, row := range t.Rows {
		cells := escapeAll(row)
		if t.ItalicFirstColumn && len(cells) > 0 && cells[0] != "" {
			cells[0] = "*" + cells[0] + "*"
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func escapeAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.ReplaceAll(strings.ReplaceAll(c, "\n", " "), "|", "/")
	}
	return out
}
