// Package geo holds the pure geometric pieces of the attendance engine:
// great-circle distance and nearest-site matching. Everything here is
// side-effect free and safe for concurrent use.
package geo

import (
	"math"
	"sort"

	"hajiri.service/internal/core/model"
)

// Mean Earth radius in meters, as used by the haversine formula.
const earthRadiusMeters = 6371000.0

// DistanceMeters computes the great-circle distance between two points
// using the haversine formula. Inputs are degrees. Callers are expected
// to pass valid coordinates; there is no runtime validation here.
func DistanceMeters(a, b model.Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// MatchNearest returns the candidate site closest to p and its distance
// in meters. Candidates without coordinates are skipped. The candidate
// list is scanned in site-ID order so that equidistant sites resolve
// the same way on every call, regardless of the order the directory
// returned them in. Returns ok=false when no usable candidate exists.
func MatchNearest(p model.Coordinate, candidates []model.Site) (model.Site, float64, bool) {
	sorted := make([]model.Site, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})

	var (
		nearest  model.Site
		minDist  = math.Inf(1)
		anyMatch bool
	)
	for _, site := range sorted {
		coord, ok := site.Coordinate()
		if !ok {
			continue
		}
		if d := DistanceMeters(p, coord); d < minDist {
			minDist = d
			nearest = site
			anyMatch = true
		}
	}

	return nearest, minDist, anyMatch
}
