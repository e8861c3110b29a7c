package geospatial

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between two
// points given in decimal degrees. Inputs are not validated.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceKm(lat1, lon1, lat2, lon2) * 1000
}

// BoundingBox returns a box around a point that contains every point within
// radiusKm. Used to prefilter rows before the exact distance check.
func BoundingBox(lat, lon, radiusKm float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusKm / 111.32
	cosLat := math.Cos(toRad(lat))
	if cosLat < 1e-6 {
		// near the poles every longitude qualifies
		return lat - latDelta, -180, lat + latDelta, 180
	}
	lonDelta := radiusKm / (111.32 * cosLat)

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
