package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/rentlens-cli/internal/baseline"
)

// Report bundles every aggregate computed from one prepared dataset.
type Report struct {
	Stats         baseline.LoadStats
	Records       int
	Overall       float64
	FloorPlans    []GroupRow
	Markets       []MarketRow
	LowProperties []PropertyRow
	Trend         []TrendPoint
	Warnings      []string
}

// Summarize runs all aggregators over ds.
func Summarize(ds *baseline.Dataset, opt Options) *Report {
	rep := &Report{
		Stats:         ds.Stats,
		Records:       len(ds.Records),
		Overall:       OverallAcceptance(ds.Records),
		FloorPlans:    ByFloorPlan(ds.Records, opt),
		Markets:       ByMarket(ds.Records),
		LowProperties: LowAcceptanceProperties(ds.Records, opt),
		Trend:         RollingAcceptance(ds.Records, opt.RollingWindow),
	}
	if rep.Records == 0 {
		rep.Warnings = append(rep.Warnings, "no records survived filtering")
	}
	if len(rep.FloorPlans) == 0 && rep.Records > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("no floor-plan group has more than %d records", opt.UnitGroupMinCount))
	}
	if n := len(ds.Stats.UnmatchedAssets); n > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d asset(s) missing from the registry were dropped", n))
	}
	return rep
}

// Markdown renders the dataset summary and notes. Aggregate tables are
// rendered by the table package.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Fragments: %d\n", r.Stats.Fragments))
	b.WriteString(fmt.Sprintf("Rows: %d (prepared %d)\n", r.Stats.RawRows, r.Records))
	b.WriteString(fmt.Sprintf("Dropped: null recc_rate %d, excluded user %d, unmatched asset %d\n",
		r.Stats.DroppedNullRate, r.Stats.DroppedExcludedUser, r.Stats.DroppedUnmatchedAsset))
	if !math.IsNaN(r.Overall) {
		b.WriteString(fmt.Sprintf("Overall acceptance: %.2f%%\n", r.Overall*100))
	}

	if n := len(r.Trend); n > 0 {
		last := r.Trend[n-1]
		b.WriteString("\n[TREND]\n")
		b.WriteString(fmt.Sprintf("- %s to %s (%d days)\n", r.Trend[0].Date.Format("2006-01-02"), last.Date.Format("2006-01-02"), n))
		b.WriteString(fmt.Sprintf("- latest rolling acceptance: %.2f%%\n", last.Rolling*100))
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
