package core

import "math"

// Fallback slider domains when the record set has no values to observe.
var (
	fallbackPctDomain = Range{Min: 0, Max: 100}
	fallbackPPDomain  = Range{Min: -5, Max: 5}
)

// degenerateWidening is added on each side of a single-valued domain.
const degenerateWidening = 0.1

// Apply returns the records that satisfy every predicate of spec, in input order.
// Neither records nor spec is modified.
//
// A missing pct60_2022 is compared as 0, so no-data rows are not hidden by
// range filters that include 0.
func Apply(records []LocalityRecord, spec FilterSpec) []LocalityRecord {
	out := make([]LocalityRecord, 0, len(records))
	for _, r := range records {
		if Matches(r, spec) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record satisfies spec.
func Matches(r LocalityRecord, spec FilterSpec) bool {
	if spec.Jurisdiction != "" && r.Jurisdiction != spec.Jurisdiction {
		return false
	}
	if spec.LocalityID != "" && r.ID != spec.LocalityID {
		return false
	}
	if spec.Population != nil && !spec.Population.Contains(r.Total2022) {
		return false
	}
	if spec.Pct60 != nil && !spec.Pct60.Contains(pctForFilter(r)) {
		return false
	}
	if spec.GrowthPP != nil && !spec.GrowthPP.Contains(r.GrowthPP) {
		return false
	}
	return true
}

func pctForFilter(r LocalityRecord) float64 {
	if r.Pct60_2022 == nil {
		return 0
	}
	return *r.Pct60_2022
}

// DefaultFilterSpec returns the spec whose ranges span the observed domain of
// records: population [0, max], and [min, max] of the values the filter
// compares for pct60_2022 and growth_pp. Applying it returns every record.
func DefaultFilterSpec(records []LocalityRecord) FilterSpec {
	pop := Range{Min: 0, Max: 0}
	pct := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	pp := Range{Min: math.Inf(1), Max: math.Inf(-1)}

	for _, r := range records {
		pop.Max = math.Max(pop.Max, r.Total2022)
		widen(&pct, pctForFilter(r))
		widen(&pp, r.GrowthPP)
	}

	if len(records) == 0 {
		pct = fallbackPctDomain
		pp = fallbackPPDomain
	}
	if pp.Min == pp.Max {
		pp.Min -= degenerateWidening
		pp.Max += degenerateWidening
	}

	return FilterSpec{
		Population: &pop,
		Pct60:      &pct,
		GrowthPP:   &pp,
	}
}

func widen(r *Range, v float64) {
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
}
