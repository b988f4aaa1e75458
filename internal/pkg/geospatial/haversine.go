package geospatial

import "math"

// EarthRadiusKm is the mean radius of Earth.
const EarthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in kilometres between two
// points on a sphere of the given radius. Longitudes may use any 360-periodic
// convention as long as both points share it.
func Haversine(lat1, lon1, lat2, lon2, radiusKm float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return radiusKm * c
}

// BoundingBox returns a lat/lon box around a point covering distanceKm on a
// sphere of radiusKm. Longitude bounds may fall outside [-180,180]; near the
// poles the box spans every longitude.
func BoundingBox(lat, lon, distanceKm, radiusKm float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := distanceKm / radiusKm * 180 / math.Pi
	minLat, maxLat = math.Max(lat-latDelta, -90), math.Min(lat+latDelta, 90)

	cos := math.Cos(toRad(lat))
	if cos < 1e-9 || minLat <= -90 || maxLat >= 90 {
		return minLat, -180, maxLat, 180
	}
	lonDelta := latDelta / cos
	if lonDelta >= 180 {
		return minLat, -180, maxLat, 180
	}
	return minLat, lon - lonDelta, maxLat, lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
