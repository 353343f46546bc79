package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultSearchLimit caps the number of search hits.
const DefaultSearchLimit = 10

// SearchHit is one locality matching a free-text query.
type SearchHit struct {
	ID       string `json:"clc"`
	Label    string `json:"place_name"`
	Centroid LonLat `json:"center"`
	BBox     *BBox  `json:"bbox,omitempty"`
}

// SearchOptions configures Search.
type SearchOptions struct {
	Limit         int     // 0 means DefaultSearchLimit
	MinPopulation float64 // 0 means DefaultMinPopulation
}

// Search matches query against "localidad, provincia" ignoring case and
// accents, in record order. Only records with a name, a jurisdiction, enough
// population and a centroid can be hits, since a hit must be locatable.
func Search(records []LocalityRecord, query string, opts SearchOptions) []SearchHit {
	q := strings.TrimSpace(foldText(query))
	if q == "" {
		return nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	minPop := LoadOptions{MinPopulation: opts.MinPopulation}.threshold()

	var hits []SearchHit
	for _, r := range records {
		if r.Name == "" || r.Jurisdiction == "" || r.Total2022 < minPop || r.Centroid == nil {
			continue
		}
		label := Label(r)
		if !strings.Contains(foldText(label), q) {
			continue
		}
		hits = append(hits, SearchHit{
			ID:       r.ID,
			Label:    label,
			Centroid: *r.Centroid,
			BBox:     r.BBox,
		})
		if len(hits) == limit {
			break
		}
	}
	return hits
}

// Label is the display label used by search: "localidad, provincia".
func Label(r LocalityRecord) string {
	return r.Name + ", " + r.Jurisdiction
}

// foldText lowercases s and strips combining marks ("Córdoba" -> "cordoba").
func foldText(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
