// Package core provides the normalization and aggregation pipeline for locality records.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"context"
	"time"
)

// RawRow is one heterogeneous row as produced by a row source.
// Keys are source column names; values are scalars (string, float64, int, bool,
// json numbers) or arrays, exactly as the source decoded them.
type RawRow map[string]any

// RowSource yields the raw rows of a tabular dataset in source order.
// Implementations live in package source; the core imposes no format.
type RowSource interface {
	Rows(ctx context.Context) ([]RawRow, error)
	// Describe returns a short, credential-free description for logs.
	Describe() string
}

// LonLat is a point location in degrees.
type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// BBox is a bounding box ordered as minLon, minLat, maxLon, maxLat.
type BBox [4]float64

// LocalityRecord is the canonical representation of one locality row.
// Optional values are pointers: nil means "no data", which is distinct from 0.
type LocalityRecord struct {
	ID           string `json:"clc"`
	Jurisdiction string `json:"provincia"`
	Name         string `json:"localidad"`

	Total2010  float64 `json:"total_2010"`
	Total2022  float64 `json:"total_2022"`
	Pop60_2010 float64 `json:"p60_2010"`
	Pop60_2022 float64 `json:"p60_2022"`

	Pct60_2010 *float64 `json:"pct60_2010"`
	Pct60_2022 *float64 `json:"pct60_2022"`

	GrowthPP       float64  `json:"growth_pp"`        // percentage points
	Growth60RelPct *float64 `json:"growth60_rel_pct"` // percent
	Growth60Abs    float64  `json:"growth60_abs"`

	Centroid *LonLat `json:"centroid,omitempty"`
	BBox     *BBox   `json:"bbox,omitempty"`
}

// AggregateStats summarizes a subset of records. Percentages are always
// computed from summed numerators and denominators.
type AggregateStats struct {
	Count int `json:"count"`

	TotalPop2010 float64 `json:"total_2010"`
	TotalPop2022 float64 `json:"total_2022"`
	Pop60_2010   float64 `json:"p60_2010"`
	Pop60_2022   float64 `json:"p60_2022"`

	Pct2010        *float64 `json:"pct_2010"`        // nil if TotalPop2010 is 0
	Pct2022        *float64 `json:"pct_2022"`        // nil if TotalPop2022 is 0
	PointChange    *float64 `json:"point_change"`    // nil if either pct is nil
	Abs60Change    float64  `json:"abs60_change"`
	Rel60ChangePct *float64 `json:"rel60_change_pct"` // nil if Pop60_2010 is 0
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// FilterSpec is the declarative filter over the record set. It is replaced as a
// whole on every change. Empty strings and nil ranges mean "any".
type FilterSpec struct {
	Jurisdiction string `json:"provincia,omitempty"`
	LocalityID   string `json:"clc,omitempty"`

	Population *Range `json:"pop,omitempty"` // over Total2022
	Pct60      *Range `json:"pct,omitempty"` // over Pct60_2022, nil treated as 0
	GrowthPP   *Range `json:"pp,omitempty"`  // over GrowthPP
}

// IsZero reports whether the spec narrows nothing.
func (f FilterSpec) IsZero() bool {
	return f.Jurisdiction == "" && f.LocalityID == "" &&
		f.Population == nil && f.Pct60 == nil && f.GrowthPP == nil
}

// LoadStats describes what happened to the raw rows during one load.
type LoadStats struct {
	RowsRead       int `json:"rows_read"`
	Retained       int `json:"retained"`
	BelowThreshold int `json:"below_threshold"`
	UnusableIDs    int `json:"unusable_ids"`   // retained rows left out of the index
	DuplicateIDs   int `json:"duplicate_ids"` // index overwrites
}

// Dataset is the immutable product of one successful load.
type Dataset struct {
	Generation string
	Source     string
	LoadedAt   time.Time
	Records    []LocalityRecord
	Stats      LoadStats

	index map[string]*LocalityRecord
}

// Lookup returns the record indexed under id. The id is matched literally.
func (d *Dataset) Lookup(id string) (LocalityRecord, bool) {
	if d == nil || id == "" {
		return LocalityRecord{}, false
	}
	r, ok := d.index[id]
	if !ok {
		return LocalityRecord{}, false
	}
	return *r, true
}

// Len returns the number of records in the working set.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// IndexLen returns the number of distinct ids in the lookup index.
func (d *Dataset) IndexLen() int {
	if d == nil {
		return 0
	}
	return len(d.index)
}

// emptyDataset is what consumers see before the first successful load.
func emptyDataset() *Dataset {
	return &Dataset{index: map[string]*LocalityRecord{}}
}

func float64Ptr(v float64) *float64 {
	return &v
}
