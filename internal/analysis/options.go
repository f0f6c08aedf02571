// Package analysis aggregates prepared baseline records into the acceptance
// summaries shown in reports: by floor-plan group, by market, by property, and
// the rolling acceptance trend.
package analysis

// Options controls aggregation thresholds.
type Options struct {
	// UnitGroupMinCount drops floor-plan groups with this many records or fewer.
	UnitGroupMinCount int
	// PropertyMinCount drops (asset, user) groups with this many records or fewer.
	PropertyMinCount int
	// SignificanceLevel is the p-value cutoff for the per-property t-test.
	SignificanceLevel float64
	// LowAcceptanceLimit caps the low-acceptance property list.
	LowAcceptanceLimit int
	// RollingWindow is the number of daily observations in the trend average.
	RollingWindow int
}

// DefaultOptions returns the thresholds used by the published reports.
func DefaultOptions() Options {
	return Options{
		UnitGroupMinCount:  50,
		PropertyMinCount:   20,
		SignificanceLevel:  0.05,
		LowAcceptanceLimit: 10,
		RollingWindow:      60,
	}
}
