package core

// convert.go provides coercion of raw cell values into Go scalars.
//
// These functions handle the messy reality of hand-assembled census tables:
//   - Numbers typed as numbers by one exporter and as strings by another
//   - Identifiers that lost leading zeros or gained a ".0" suffix
//   - Excel formula prefixes (="value") and stray quotes
//   - Decimal commas from es-AR spreadsheets
//
// All To* functions return ok=false for empty, invalid or non-finite input so
// callers can decide between "absent" and a default.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a plain decimal number after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// decimalCommaRegex matches numbers that use a single comma as decimal separator ("12,5").
var decimalCommaRegex = regexp.MustCompile(`^[+-]?\d+,\d+$`)

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// ToString coerces a raw value to its string form.
// Numbers are rendered without exponent or trailing zeros, so 123.0 becomes "123".
// Returns ok=false for nil.
func ToString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return formatFloat(x), true
	case float32:
		return formatFloat(float64(x)), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	case []byte:
		return string(x), true
	case fmt.Stringer:
		return x.String(), true
	default:
		return fmt.Sprint(x), true
	}
}

// ToFloat coerces a raw value to a finite float64.
// Accepts numbers, numeric strings (with formula prefixes, quotes or a decimal
// comma), booleans (1/0) and json.Number-like values.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumber(x)
	case []byte:
		return parseNumber(string(x))
	case interface{ Float64() (float64, error) }:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseNumber parses a numeric string after cell cleanup.
func parseNumber(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}

	if decimalCommaRegex.MatchString(s) {
		s = strings.Replace(s, ",", ".", 1)
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// isBlank reports whether a raw value carries no data: nil or a whitespace-only string.
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

// lookup returns the value of the first alias present in row with a non-blank value.
func lookup(row RawRow, aliases []string) (any, bool) {
	for _, key := range aliases {
		v, ok := row[key]
		if !ok || isBlank(v) {
			continue
		}
		return v, true
	}
	return nil, false
}
