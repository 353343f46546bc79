package core

import "testing"

func searchFixture() []LocalityRecord {
	ctr := &LonLat{Lon: -64.2, Lat: -31.4}
	return []LocalityRecord{
		{ID: "1", Name: "Córdoba", Jurisdiction: "Córdoba", Total2022: 1500000, Centroid: ctr},
		{ID: "2", Name: "Villa María", Jurisdiction: "Córdoba", Total2022: 80000, Centroid: ctr},
		{ID: "3", Name: "Rosario", Jurisdiction: "Santa Fe", Total2022: 1000000, Centroid: ctr},
		{ID: "4", Name: "Pueblo Chico", Jurisdiction: "Córdoba", Total2022: 500, Centroid: ctr},
		{ID: "5", Name: "Sin Centro", Jurisdiction: "Córdoba", Total2022: 9000},
		{ID: "6", Name: "", Jurisdiction: "Córdoba", Total2022: 9000, Centroid: ctr},
		{ID: "7", Name: "San Martín", Jurisdiction: "Mendoza", Total2022: 120000, Centroid: ctr},
	}
}

func TestSearch(t *testing.T) {
	records := searchFixture()

	tests := []struct {
		name  string
		query string
		opts  SearchOptions
		want  []string
	}{
		{"accent-insensitive", "cordoba", SearchOptions{}, []string{"1", "2"}},
		{"case-insensitive", "ROSARIO", SearchOptions{}, []string{"3"}},
		{"query accents are folded", "martín", SearchOptions{}, []string{"7"}},
		{"matches across the comma", "maría, cór", SearchOptions{}, []string{"2"}},
		{"limit", "a", SearchOptions{Limit: 2}, []string{"1", "2"}},
		{"custom threshold admits small towns", "pueblo", SearchOptions{MinPopulation: 100}, []string{"4"}},
		{"below default threshold", "pueblo", SearchOptions{}, nil},
		{"requires centroid", "sin centro", SearchOptions{}, nil},
		{"blank query", "   ", SearchOptions{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := Search(records, tt.query, tt.opts)
			got := make([]string, len(hits))
			for i, h := range hits {
				got[i] = h.ID
			}
			if !equalIDs(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSearch_Hit(t *testing.T) {
	box := BBox{-63.3, -32.5, -63.1, -32.3}
	records := []LocalityRecord{{
		ID: "14014010", Name: "Villa María", Jurisdiction: "Córdoba", Total2022: 80000,
		Centroid: &LonLat{Lon: -63.24, Lat: -32.41}, BBox: &box,
	}}

	hits := Search(records, "villa", SearchOptions{})
	if len(hits) != 1 {
		t.Fatalf("Search() returned %d hits, want 1", len(hits))
	}
	h := hits[0]
	if h.Label != "Villa María, Córdoba" {
		t.Errorf("Label = %q, want %q", h.Label, "Villa María, Córdoba")
	}
	if h.Centroid != (LonLat{Lon: -63.24, Lat: -32.41}) {
		t.Errorf("Centroid = %+v, want {-63.24 -32.41}", h.Centroid)
	}
	if h.BBox == nil || *h.BBox != box {
		t.Errorf("BBox = %v, want %v", h.BBox, box)
	}
}

func TestFoldText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Córdoba", "cordoba"},
		{"ENTRE RÍOS", "entre rios"},
		{"Añatuya", "anatuya"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := foldText(tt.input); got != tt.want {
			t.Errorf("foldText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
