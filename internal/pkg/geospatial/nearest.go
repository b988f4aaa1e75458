package geospatial

import "math"

// Located is anything with a planetocentric position. Longitudes must share
// one convention across a collection.
type Located interface {
	Position() (lat, lon float64)
}

// Match is the nearest item and its great-circle distance.
type Match[T Located] struct {
	Item       T
	DistanceKm float64
}

// Nearest returns the item closest to (lat, lon) on a sphere of radiusKm.
// Ties keep the earliest item. It reports false only for an empty list;
// distance thresholds are the caller's business.
func Nearest[T Located](lat, lon float64, items []T, radiusKm float64) (Match[T], bool) {
	var best Match[T]
	found := false
	for _, it := range items {
		iLat, iLon := it.Position()
		d := Haversine(lat, lon, iLat, iLon, radiusKm)
		if math.IsNaN(d) {
			continue
		}
		if !found || d < best.DistanceKm {
			best = Match[T]{Item: it, DistanceKm: d}
			found = true
		}
	}
	return best, found
}

// NearestWithin is Nearest with a maximum distance.
func NearestWithin[T Located](lat, lon float64, items []T, radiusKm, maxKm float64) (Match[T], bool) {
	m, ok := Nearest(lat, lon, items, radiusKm)
	if !ok || m.DistanceKm > maxKm {
		return Match[T]{}, false
	}
	return m, true
}
