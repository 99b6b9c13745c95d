package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

type Point struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether the point has in-range coordinates.
func (p Point) Valid() bool {
	return !math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude) &&
		p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the great-circle distance in kilometres (haversine).
func Distance(from, to Point) float64 {
	dLat := toRad(to.Latitude - from.Latitude)
	dLon := toRad(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(from.Latitude))*math.Cos(toRad(to.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Within reports whether to lies at most radiusKm from from.
func Within(from, to Point, radiusKm float64) bool {
	return Distance(from, to) <= radiusKm
}

func toRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}
