package baseline

import "math"

// Derive computes Diff, Accepted and AcceptedRange for each joined record.
// It neither filters nor reorders, and the input slice is left untouched.
func Derive(joined []JoinedRecord, tolerance float64) []Record {
	out := make([]Record, len(joined))
	for i, j := range joined {
		diff := j.InputtedRent - j.ReccRate
		out[i] = Record{
			JoinedRecord: j,
			Diff:         diff,
			// NaN compares false everywhere, so missing rents are never accepted.
			Accepted:      math.Abs(diff) < tolerance,
			AcceptedRange: j.InputtedRent >= j.ReccRateLower && j.InputtedRent <= j.ReccRateUpper,
		}
	}
	return out
}
