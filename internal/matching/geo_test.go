// internal/matching/geo_test.go
package matching

import (
	"testing"

	"wedding-vendor-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	newYork    = models.Coordinates{Latitude: 40.7128, Longitude: -74.0060}
	losAngeles = models.Coordinates{Latitude: 34.0522, Longitude: -118.2437}
)

func TestHaversine_ZeroDistanceForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(newYork, newYork, Miles))
	assert.Equal(t, 0.0, Haversine(losAngeles, losAngeles, Kilometers))
}

func TestHaversine_Symmetric(t *testing.T) {
	ab := Haversine(newYork, losAngeles, Miles)
	ba := Haversine(losAngeles, newYork, Miles)
	assert.InDelta(t, ab, ba, 1e-9)
}

func TestHaversine_KnownDistances(t *testing.T) {
	// NYC to LA is roughly 2,445 miles / 3,935 km great-circle.
	assert.InDelta(t, 2445, Haversine(newYork, losAngeles, Miles), 20)
	assert.InDelta(t, 3935, Haversine(newYork, losAngeles, Kilometers), 30)
}

func TestHaversine_UnitSelection(t *testing.T) {
	miles := Haversine(newYork, losAngeles, Miles)
	km := Haversine(newYork, losAngeles, Kilometers)
	assert.InDelta(t, 1.609, km/miles, 0.01)
}

func TestRoundDistance(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{12.34, 12.3},
		{12.36, 12.4},
		{12.999, 13.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundDistance(tt.in))
	}
}
