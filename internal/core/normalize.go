package core

// normalize.go converts one raw row into a LocalityRecord.
//
// Source tables for this dataset come from several exporters that disagree on
// column names and on units. Each step below resolves one group of fields and
// degrades to a safe default instead of failing:
//
//  1. Identifier (clc): alias lookup, ".0" stripping, zero-padding to 8 digits
//  2. Jurisdiction and name: alias lookup, trimmed
//  3. Population counts: alias lookup, 0 when absent
//  4. Percentages of population 60+: nil when absent
//  5. Proportion-vs-percentage reconciliation for the percentages
//  6. growth_pp reconciliation (fraction vs percentage points)
//  7. growth60_rel_pct reconciliation
//  8. growth60_abs fallback
//  9. Centroid and bounding box

import (
	"math"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// IDWidth is the fixed width of locality codes.
const IDWidth = 8

// Unit heuristics. These are empirical accommodations for the source files,
// not derived constants.
const (
	// ProportionCeiling is the largest value that may be a 0-1 proportion.
	ProportionCeiling = 1.0

	// ProportionTolerance is the maximum absolute gap between a suspected
	// proportion and pop60/total for the value to be rescaled.
	ProportionTolerance = 0.02

	// GrowthMismatchPoints is how far growth_pp must be from the expected
	// point difference before rescaling is considered.
	GrowthMismatchPoints = 1.0

	// GrowthAgreementPoints is how close growth_pp*100 must be to the
	// expected point difference to be rescaled.
	GrowthAgreementPoints = 0.5
)

// Column aliases, in priority order. The first alias with a non-blank value wins.
var (
	aliasID           = []string{"clc", "CLC", "Clc"}
	aliasJurisdiction = []string{"provincia", "jur", "Provincia"}
	aliasName         = []string{"localidad", "nam", "Localidad"}
	aliasTotal2010    = []string{"total_2010", "Total 2010"}
	aliasTotal2022    = []string{"total_2022", "Total 2022"}
	aliasPop60_2010   = []string{"p60_2010", "60+ 2010", "pop60_2010"}
	aliasPop60_2022   = []string{"p60_2022", "60+ 2022", "pop60_2022"}
	aliasPct60_2010   = []string{"pct60_2010", "%60+2010"}
	aliasPct60_2022   = []string{"pct60_2022", "%60+2022"}
	aliasGrowthPP     = []string{"growth_pp", "evolución peso 60+ 99"}
	aliasGrowthRel    = []string{"growth60_rel_pct", "evolución60+"}
	aliasGrowthAbs    = []string{"growth60_abs"}
	aliasCentroidLon  = []string{"centroid_lon"}
	aliasCentroidLat  = []string{"centroid_lat"}
	aliasBBox         = []string{"bbox"}
)

var (
	trailingZeroDecimal = regexp.MustCompile(`\.0+$`)
	allDigits           = regexp.MustCompile(`^\d+$`)
)

// Normalize converts one raw row into a LocalityRecord. It never fails: a row
// whose identifier cannot be resolved yields a record with an empty ID, which
// the loader keeps out of the index.
func Normalize(row RawRow) LocalityRecord {
	var r LocalityRecord

	r.ID = resolveID(row)
	r.Jurisdiction = resolveText(row, aliasJurisdiction)
	r.Name = resolveText(row, aliasName)

	r.Total2010 = resolveCount(row, aliasTotal2010)
	r.Total2022 = resolveCount(row, aliasTotal2022)
	r.Pop60_2010 = resolveCount(row, aliasPop60_2010)
	r.Pop60_2022 = resolveCount(row, aliasPop60_2022)

	r.Pct60_2010 = ReconcilePercent(resolveOptional(row, aliasPct60_2010), r.Pop60_2010, r.Total2010)
	r.Pct60_2022 = ReconcilePercent(resolveOptional(row, aliasPct60_2022), r.Pop60_2022, r.Total2022)

	r.GrowthPP = ReconcileGrowthPP(resolveCount(row, aliasGrowthPP), r.Pct60_2010, r.Pct60_2022)
	r.Growth60RelPct = reconcileRelative(resolveOptional(row, aliasGrowthRel))

	if v, ok := resolveFloat(row, aliasGrowthAbs); ok {
		r.Growth60Abs = v
	} else {
		r.Growth60Abs = r.Pop60_2022 - r.Pop60_2010
	}

	r.Centroid = resolveCentroid(row)
	r.BBox = resolveBBox(row)

	return r
}

// NormalizeID applies the identifier rules to an already string-coerced value:
// trim, strip a trailing ".0" artifact, and left-pad all-digit ids shorter than
// IDWidth with zeros. Other values pass through unchanged.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	s = trailingZeroDecimal.ReplaceAllString(s, "")
	if s != "" && len(s) < IDWidth && allDigits.MatchString(s) {
		s = strings.Repeat("0", IDWidth-len(s)) + s
	}
	return s
}

func resolveID(row RawRow) string {
	v, ok := lookup(row, aliasID)
	if !ok {
		return ""
	}
	s, _ := ToString(v)
	return NormalizeID(s)
}

func resolveText(row RawRow, aliases []string) string {
	v, ok := lookup(row, aliases)
	if !ok {
		return ""
	}
	s, _ := ToString(v)
	return strings.TrimSpace(s)
}

func resolveFloat(row RawRow, aliases []string) (float64, bool) {
	v, ok := lookup(row, aliases)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// resolveCount returns the numeric value of the first alias, or 0.
func resolveCount(row RawRow, aliases []string) float64 {
	f, _ := resolveFloat(row, aliases)
	return f
}

// resolveOptional returns the numeric value of the first alias, or nil.
func resolveOptional(row RawRow, aliases []string) *float64 {
	f, ok := resolveFloat(row, aliases)
	if !ok {
		return nil
	}
	return &f
}

// ReconcilePercent rescales a share of population 60+ given as a 0-1 proportion
// to a 0-100 percentage. The value is rescaled only when it is at most
// ProportionCeiling and agrees with pop60/total within ProportionTolerance, so
// a legitimately small percentage is left alone. Applying it to its own output
// is a no-op.
func ReconcilePercent(pct *float64, pop60, total float64) *float64 {
	if pct == nil {
		return nil
	}
	v := *pct
	if v <= ProportionCeiling && total > 0 {
		ratio := pop60 / total
		if !math.IsInf(ratio, 0) && !math.IsNaN(ratio) && math.Abs(ratio-v) < ProportionTolerance {
			v *= 100
		}
	}
	return &v
}

// ReconcileGrowthPP converts a growth in share given as a fraction into
// percentage points. Values with magnitude above 1 are already points. Small
// values are compared against the difference of the two percentages when both
// are known; without them the value is assumed to be a fraction.
func ReconcileGrowthPP(pp float64, pct2010, pct2022 *float64) float64 {
	if math.Abs(pp) > 1.0 {
		return pp
	}
	if pct2010 == nil || pct2022 == nil {
		return pp * 100
	}

	diff := *pct2022 - *pct2010
	if math.Abs(diff-pp) > GrowthMismatchPoints && math.Abs(diff-pp*100) < GrowthAgreementPoints {
		return pp * 100
	}
	return pp
}

// reconcileRelative treats a relative growth with magnitude at most 1 as a fraction.
func reconcileRelative(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	if math.Abs(out) <= 1.0 {
		out *= 100
	}
	return &out
}

func resolveCentroid(row RawRow) *LonLat {
	lon, okLon := resolveFloat(row, aliasCentroidLon)
	lat, okLat := resolveFloat(row, aliasCentroidLat)
	if !okLon || !okLat {
		return nil
	}
	return &LonLat{Lon: lon, Lat: lat}
}

// resolveBBox accepts a bbox given as an array of four numbers or as its JSON
// encoding. Anything else, including partial or non-finite boxes, yields nil.
func resolveBBox(row RawRow) *BBox {
	v, ok := lookup(row, aliasBBox)
	if !ok {
		return nil
	}

	var parts []any
	switch x := v.(type) {
	case string:
		if err := json.Unmarshal([]byte(strings.TrimSpace(x)), &parts); err != nil {
			return nil
		}
	case []any:
		parts = x
	case []float64:
		parts = make([]any, len(x))
		for i, f := range x {
			parts[i] = f
		}
	case BBox:
		b := x
		return validBBox(b[:])
	default:
		return nil
	}

	if len(parts) != 4 {
		return nil
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, ok := ToFloat(p)
		if !ok {
			return nil
		}
		vals[i] = f
	}
	return validBBox(vals)
}

func validBBox(vals []float64) *BBox {
	if len(vals) != 4 {
		return nil
	}
	var b BBox
	for i, f := range vals {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		b[i] = f
	}
	return &b
}
