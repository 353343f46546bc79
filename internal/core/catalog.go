package core

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// LocalityRef is a lightweight (id, name) pair for locality pickers.
type LocalityRef struct {
	ID   string `json:"clc"`
	Name string `json:"localidad"`
}

// Jurisdictions returns the distinct non-empty jurisdictions of records,
// sorted with Spanish collation ("Córdoba" sorts next to "Corrientes").
func Jurisdictions(records []LocalityRecord) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 24)
	for _, r := range records {
		if r.Jurisdiction == "" {
			continue
		}
		if _, ok := seen[r.Jurisdiction]; ok {
			continue
		}
		seen[r.Jurisdiction] = struct{}{}
		out = append(out, r.Jurisdiction)
	}

	// Collators keep internal buffers, so each call gets its own.
	c := collate.New(language.Spanish)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i], out[j]) < 0
	})
	return out
}

// LocalitiesIn returns the indexed localities of one jurisdiction sorted by
// name. Records without an id are skipped since they cannot be selected.
func LocalitiesIn(records []LocalityRecord, jurisdiction string) []LocalityRef {
	var out []LocalityRef
	for _, r := range records {
		if r.Jurisdiction != jurisdiction || r.ID == "" {
			continue
		}
		out = append(out, LocalityRef{ID: r.ID, Name: r.Name})
	}

	c := collate.New(language.Spanish)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}
