package chart

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
)

// ErrMalformedFloorPlan is returned when a floor-plan label is not "<beds>x<baths>".
var ErrMalformedFloorPlan = eris.New("malformed floor plan label")

var floorPlanRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*[xX]\s*(\d+(?:\.\d+)?)\s*$`)

// FloorPlan is a parsed floor-plan group label such as "2x1.5".
type FloorPlan struct {
	Label     string
	Bedrooms  float64
	Bathrooms float64
}

// ParseFloorPlan splits a "<beds>x<baths>" label into its counts.
func ParseFloorPlan(label string) (FloorPlan, error) {
	m := floorPlanRe.FindStringSubmatch(label)
	if m == nil {
		return FloorPlan{}, eris.Wrapf(ErrMalformedFloorPlan, "%q", label)
	}
	beds, _ := strconv.ParseFloat(m[1], 64)
	baths, _ := strconv.ParseFloat(m[2], 64)
	return FloorPlan{Label: label, Bedrooms: beds, Bathrooms: baths}, nil
}

// SortFloorPlans returns the distinct labels ordered by bedrooms, then
// bathrooms, then label text.
func SortFloorPlans(labels []string) ([]FloorPlan, error) {
	seen := make(map[string]struct{}, len(labels))
	var plans []FloorPlan
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		fp, err := ParseFloorPlan(l)
		if err != nil {
			return nil, err
		}
		plans = append(plans, fp)
	}
	sort.Slice(plans, func(i, j int) bool {
		a, b := plans[i], plans[j]
		if a.Bedrooms != b.Bedrooms {
			return a.Bedrooms < b.Bedrooms
		}
		if a.Bathrooms != b.Bathrooms {
			return a.Bathrooms < b.Bathrooms
		}
		return a.Label < b.Label
	})
	return plans, nil
}
