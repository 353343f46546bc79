package core

import (
	"math"
	"sort"

	"github.com/golang/geo/s2"
)

// earthRadiusKm is the mean Earth radius used for distances.
const earthRadiusKm = 6371.0088

// Nearby is a record with its distance from a query point.
type Nearby struct {
	Record     LocalityRecord `json:"record"`
	DistanceKm float64        `json:"distance_km"`
}

// Bounds returns the smallest box covering the bboxes of records, or nil when
// no record has a usable bbox. Records without geometry are skipped. The box is
// a plain min/max over longitudes and never wraps the antimeridian.
func Bounds(records []LocalityRecord) *BBox {
	var out *BBox
	for _, r := range records {
		if r.BBox == nil {
			continue
		}
		b := *r.BBox
		if !s2.LatLngFromDegrees(b[1], b[0]).IsValid() || !s2.LatLngFromDegrees(b[3], b[2]).IsValid() {
			continue
		}
		if out == nil {
			out = &b
			continue
		}
		out[0] = math.Min(out[0], b[0])
		out[1] = math.Min(out[1], b[1])
		out[2] = math.Max(out[2], b[2])
		out[3] = math.Max(out[3], b[3])
	}
	return out
}

// Nearest returns up to k records closest to (lon, lat) by great-circle
// distance. Records without a centroid are skipped; ties keep record order.
func Nearest(records []LocalityRecord, lon, lat float64, k int) []Nearby {
	origin := s2.LatLngFromDegrees(lat, lon)
	if k <= 0 || !origin.IsValid() {
		return nil
	}

	var out []Nearby
	for _, r := range records {
		if r.Centroid == nil {
			continue
		}
		p := s2.LatLngFromDegrees(r.Centroid.Lat, r.Centroid.Lon)
		if !p.IsValid() {
			continue
		}
		out = append(out, Nearby{
			Record:     r,
			DistanceKm: origin.Distance(p).Radians() * earthRadiusKm,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
