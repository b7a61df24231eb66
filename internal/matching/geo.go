// internal/matching/geo.go
package matching

import (
	"math"

	"wedding-vendor-workers/internal/models"
)

// DistanceUnit selects the Earth radius used for great-circle math.
type DistanceUnit string

const (
	Miles      DistanceUnit = "miles"
	Kilometers DistanceUnit = "km"
)

const (
	earthRadiusMiles = 3959.0
	earthRadiusKm    = 6371.0
)

func (u DistanceUnit) earthRadius() float64 {
	if u == Kilometers {
		return earthRadiusKm
	}
	return earthRadiusMiles
}

// Haversine returns the great-circle distance between two coordinate pairs.
func Haversine(a, b models.Coordinates, unit DistanceUnit) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return unit.earthRadius() * c
}

// RoundDistance rounds a distance to one decimal place for display stability.
func RoundDistance(d float64) float64 {
	return math.Round(d*10) / 10
}
