// Package baseline loads rent-recommendation exports, joins them against the
// active asset registry and derives the acceptance metrics every report uses.
package baseline

import "time"

// RawRecord is one recommendation event as exported. Numeric and date columns
// are kept as text until the filtering step decides the row participates.
type RawRecord struct {
	AssetName          string `csv:"AssetName"`
	FloorPlanGroupName string `csv:"FloorPlanGroupName"`
	RecommendationDate string `csv:"RecommendationDate"`
	InputtedRent       string `csv:"InputtedRent"`
	ReccRate           string `csv:"recc_rate"`
	ReccRateLower      string `csv:"recc_rate_lower"`
	ReccRateUpper      string `csv:"recc_rate_upper"`
	User               string `csv:"User"`
}

// Asset is one row of the active asset registry.
type Asset struct {
	AssetName       string `csv:"AssetName"`
	MarketName      string `csv:"MarketName"`
	AcquisitionDate string `csv:"AcquisitionDate"`
}

// JoinedRecord is a parsed recommendation joined with its asset.
// Missing numeric values are NaN; a missing date is the zero time.
type JoinedRecord struct {
	AssetName          string
	MarketName         string
	FloorPlanGroupName string
	User               string
	RecommendationDate time.Time
	AcquisitionDate    time.Time
	InputtedRent       float64
	ReccRate           float64
	ReccRateLower      float64
	ReccRateUpper      float64
	Source             string
}

// Record is a prepared record: the joined row plus derived metrics.
type Record struct {
	JoinedRecord
	// Diff is InputtedRent - ReccRate.
	Diff float64
	// Accepted means the inputted rent matched the recommendation within tolerance.
	Accepted bool
	// AcceptedRange means ReccRateLower <= InputtedRent <= ReccRateUpper.
	AcceptedRange bool
}

// LoadStats accounts for every row read and why it was dropped.
type LoadStats struct {
	Fragments             int `json:"fragments"`
	RawRows               int `json:"raw_rows"`
	DroppedNullRate       int `json:"dropped_null_rate"`
	DroppedExcludedUser   int `json:"dropped_excluded_user"`
	DroppedUnmatchedAsset int `json:"dropped_unmatched_asset"`
	Prepared              int `json:"prepared"`
	// UnmatchedAssets lists distinct asset names missing from the registry, sorted.
	UnmatchedAssets []string `json:"unmatched_assets,omitempty"`
}

// Dataset is the prepared, read-only input of every report.
type Dataset struct {
	Records []Record
	Stats   LoadStats
}

// Markets returns distinct market names in first-appearance order.
func (d *Dataset) Markets() []string {
	return distinct(d.Records, func(r Record) string { return r.MarketName })
}

// Assets returns distinct asset names in first-appearance order.
func (d *Dataset) Assets() []string {
	return distinct(d.Records, func(r Record) string { return r.AssetName })
}

func distinct(recs []Record, key func(Record) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range recs {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
