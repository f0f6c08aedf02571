package analysis

import (
	"sort"
	"time"

	"github.com/KaramelBytes/rentlens-cli/internal/baseline"
)

// TrendPoint is one day of the acceptance trend.
type TrendPoint struct {
	Date      time.Time
	DailyRate float64
	// Rolling is the mean of DailyRate over the trailing window of daily
	// observations ending at Date.
	Rolling float64
}

// RollingAcceptance averages AcceptedRange per recommendation date and smooths
// the daily series with a trailing mean over window observations (minimum one).
// Records without a date are skipped. Days are calendar days in each
// record's own location.
func RollingAcceptance(recs []baseline.Record, window int) []TrendPoint {
	if window < 1 {
		window = 1
	}
	type tally struct{ n, accepted int }
	days := map[time.Time]*tally{}
	for _, r := range recs {
		if r.RecommendationDate.IsZero() {
			continue
		}
		y, m, dd := r.RecommendationDate.Date()
		d := time.Date(y, m, dd, 0, 0, 0, 0, r.RecommendationDate.Location())
		t, ok := days[d]
		if !ok {
			t = &tally{}
			days[d] = t
		}
		t.n++
		if r.AcceptedRange {
			t.accepted++
		}
	}

	points := make([]TrendPoint, 0, len(days))
	for d, t := range days {
		points = append(points, TrendPoint{Date: d, DailyRate: float64(t.accepted) / float64(t.n)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	sum := 0.0
	for i := range points {
		sum += points[i].DailyRate
		if i >= window {
			sum -= points[i-window].DailyRate
		}
		n := i + 1
		if n > window {
			n = window
		}
		points[i].Rolling = sum / float64(n)
	}
	return points
}
