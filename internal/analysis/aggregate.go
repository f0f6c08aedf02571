package analysis

import (
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/rentlens-cli/internal/baseline"
)

// GroupRow is an acceptance summary for one floor-plan group.
type GroupRow struct {
	FloorPlanGroupName string
	Count              int
	AcceptanceRate     float64
	MedianAdjustment   float64
}

// MarketRow is an acceptance summary for one market.
type MarketRow struct {
	MarketName          string
	Count               int
	AcceptanceRate      float64
	MedianAdjustment    float64
	NumAssets           int
	EarliestAcquisition time.Time
}

// PropertyRow is an acceptance summary for one (asset, rate manager) pair.
type PropertyRow struct {
	AssetName        string
	User             string
	Count            int
	AcceptanceRate   float64
	MedianAdjustment float64
	// PValue is NaN when the asset has fewer than two records.
	PValue      float64
	Significant bool
}

// group collects the records sharing one key.
type group struct {
	key  []string
	recs []baseline.Record
}

func (g group) summary() (count int, rate, median float64) {
	inRange := make([]bool, len(g.recs))
	diffs := make([]float64, len(g.recs))
	for i, r := range g.recs {
		inRange[i] = r.AcceptedRange
		diffs[i] = r.Diff
	}
	return len(g.recs), stat.Mean(boolsToFloats(inRange), nil), Median(diffs)
}

// groupBy partitions records by key and returns groups in ascending key order.
// Records with a blank key component belong to no group.
func groupBy(recs []baseline.Record, key func(baseline.Record) []string) []group {
	index := map[string]int{}
	var groups []group
	for _, r := range recs {
		k := key(r)
		if blankKey(k) {
			continue
		}
		id := joinKey(k)
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, group{key: k})
		}
		groups[i].recs = append(groups[i].recs, r)
	}
	sort.Slice(groups, func(a, b int) bool { return lessKey(groups[a].key, groups[b].key) })
	return groups
}

func blankKey(k []string) bool {
	for _, s := range k {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}

func joinKey(k []string) string {
	out := ""
	for i, s := range k {
		if i > 0 {
			out += "\x00"
		}
		out += s
	}
	return out
}

func lessKey(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// OverallAcceptance is the mean AcceptedRange over all records (NaN when empty).
func OverallAcceptance(recs []baseline.Record) float64 {
	if len(recs) == 0 {
		return math.NaN()
	}
	n := 0
	for _, r := range recs {
		if r.AcceptedRange {
			n++
		}
	}
	return float64(n) / float64(len(recs))
}

// ByFloorPlan summarizes acceptance per floor-plan group, keeping groups with
// more than opt.UnitGroupMinCount records, highest acceptance first.
func ByFloorPlan(recs []baseline.Record, opt Options) []GroupRow {
	var rows []GroupRow
	for _, g := range groupBy(recs, func(r baseline.Record) []string { return []string{r.FloorPlanGroupName} }) {
		count, rate, median := g.summary()
		if count <= opt.UnitGroupMinCount {
			continue
		}
		rows = append(rows, GroupRow{
			FloorPlanGroupName: g.key[0],
			Count:              count,
			AcceptanceRate:     rate,
			MedianAdjustment:   median,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AcceptanceRate > rows[j].AcceptanceRate })
	return rows
}

// ByMarket summarizes acceptance per market with its asset count and earliest
// acquisition, highest acceptance first. No minimum count applies.
func ByMarket(recs []baseline.Record) []MarketRow {
	var rows []MarketRow
	for _, g := range groupBy(recs, func(r baseline.Record) []string { return []string{r.MarketName} }) {
		count, rate, median := g.summary()
		assets := map[string]struct{}{}
		var earliest time.Time
		for _, r := range g.recs {
			assets[r.AssetName] = struct{}{}
			if r.AcquisitionDate.IsZero() {
				continue
			}
			if earliest.IsZero() || r.AcquisitionDate.Before(earliest) {
				earliest = r.AcquisitionDate
			}
		}
		rows = append(rows, MarketRow{
			MarketName:          g.key[0],
			Count:               count,
			AcceptanceRate:      rate,
			MedianAdjustment:    median,
			NumAssets:           len(assets),
			EarliestAcquisition: earliest,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AcceptanceRate > rows[j].AcceptanceRate })
	return rows
}

// ByProperty summarizes acceptance per (asset, user), keeping pairs with more
// than opt.PropertyMinCount records, highest acceptance first. Each row carries
// the p-value of a one-sample t-test of all the asset's AcceptedRange values
// against the overall acceptance rate.
func ByProperty(recs []baseline.Record, opt Options) []PropertyRow {
	overall := OverallAcceptance(recs)

	byAsset := map[string][]float64{}
	for _, r := range recs {
		v := 0.0
		if r.AcceptedRange {
			v = 1
		}
		byAsset[r.AssetName] = append(byAsset[r.AssetName], v)
	}
	pvalues := map[string]float64{}

	var rows []PropertyRow
	for _, g := range groupBy(recs, func(r baseline.Record) []string { return []string{r.AssetName, r.User} }) {
		count, rate, median := g.summary()
		if count <= opt.PropertyMinCount {
			continue
		}
		asset := g.key[0]
		p, ok := pvalues[asset]
		if !ok {
			_, p = OneSampleTTest(byAsset[asset], overall)
			pvalues[asset] = p
		}
		rows = append(rows, PropertyRow{
			AssetName:        asset,
			User:             g.key[1],
			Count:            count,
			AcceptanceRate:   rate,
			MedianAdjustment: median,
			PValue:           p,
			// NaN < alpha is false, so untestable properties are never significant.
			Significant: p < opt.SignificanceLevel,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AcceptanceRate > rows[j].AcceptanceRate })
	return rows
}

// LowAcceptanceProperties lists properties whose acceptance rate is
// significantly below the overall rate. Rows are ordered by acceptance rate
// ascending and only the last opt.LowAcceptanceLimit are kept, which are the
// highest-rate entries among the below-average significant set.
func LowAcceptanceProperties(recs []baseline.Record, opt Options) []PropertyRow {
	overall := OverallAcceptance(recs)
	rows := ByProperty(recs, opt)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AcceptanceRate < rows[j].AcceptanceRate })

	var low []PropertyRow
	for _, r := range rows {
		if r.Significant && r.AcceptanceRate < overall {
			low = append(low, r)
		}
	}
	if opt.LowAcceptanceLimit > 0 && len(low) > opt.LowAcceptanceLimit {
		low = low[len(low)-opt.LowAcceptanceLimit:]
	}
	return low
}
