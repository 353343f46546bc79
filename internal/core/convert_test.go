package core

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
)

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple string unchanged", "hello", "hello"},
		{"empty string", "", ""},
		{"surrounded by whitespace", "  hello  ", "hello"},
		{"Excel formula with quotes", `="06007010"`, "06007010"},
		{"bare equals sign", "=1200", "1200"},
		{"double quoted", `"1200"`, "1200"},
		{"single quoted", `'1200'`, "1200"},
		{"whitespace inside formula", `=" 42 "`, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToString Tests
// ----------------------------------------------------------------------------

func TestToString(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"string passes through", " 123 ", " 123 ", true},
		{"integral float has no decimals", 123.0, "123", true},
		{"large integral float has no exponent", 6007010.0, "6007010", true},
		{"fractional float", 12.5, "12.5", true},
		{"int", 42, "42", true},
		{"int64", int64(6007010), "6007010", true},
		{"bool", true, "true", true},
		{"bytes", []byte("abc"), "abc", true},
		{"json number", json.Number("123"), "123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToString(tt.input)
			if ok != tt.wantOK {
				t.Errorf("ToString(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ToString(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToFloat Tests
// ----------------------------------------------------------------------------

func TestToFloat(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		// Valid
		{"float64", 1200.0, 1200, true},
		{"int", 1200, 1200, true},
		{"numeric string", "1200", 1200, true},
		{"string with whitespace", "  0.15 ", 0.15, true},
		{"leading decimal point", ".5", 0.5, true},
		{"negative", "-3.25", -3.25, true},
		{"scientific", "1e3", 1000, true},
		{"decimal comma", "12,5", 12.5, true},
		{"formula prefix", `="2500"`, 2500, true},
		{"bool true", true, 1, true},
		{"bool false", false, 0, true},
		{"json number", json.Number("3.5"), 3.5, true},

		// Invalid
		{"nil", nil, 0, false},
		{"empty string", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"text", "n/a", 0, false},
		{"thousands separators", "1,234,567", 0, false},
		{"NaN float", math.NaN(), 0, false},
		{"infinite float", math.Inf(1), 0, false},
		{"NaN string", "NaN", 0, false},
		{"overflowing string", "1e999", 0, false},
		{"slice", []any{1, 2}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ToFloat(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ToFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// lookup Tests
// ----------------------------------------------------------------------------

func TestLookup(t *testing.T) {
	aliases := []string{"clc", "CLC", "Clc"}

	tests := []struct {
		name   string
		row    RawRow
		want   any
		wantOK bool
	}{
		{"first alias wins", RawRow{"clc": "1", "CLC": "2"}, "1", true},
		{"falls through to later alias", RawRow{"Clc": "3"}, "3", true},
		{"blank value is skipped", RawRow{"clc": "  ", "CLC": "2"}, "2", true},
		{"nil value is skipped", RawRow{"clc": nil, "Clc": 7.0}, 7.0, true},
		{"zero is a value", RawRow{"clc": 0.0}, 0.0, true},
		{"no alias present", RawRow{"id": "1"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lookup(tt.row, aliases)
			if ok != tt.wantOK {
				t.Errorf("lookup() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("lookup() = %v, want %v", got, tt.want)
			}
		})
	}
}
