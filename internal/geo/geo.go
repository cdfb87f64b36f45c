// Package geo holds the spherical-earth helpers used by the grid and bounds code.
package geo

import (
	"math"

	"github.com/mohammed-shakir/hexview/internal/core/model"
)

const EarthRadiusMeters = 6371000.0

func DegreesToRadians(d float64) float64 { return d * math.Pi / 180 }

func RadiansToDegrees(r float64) float64 { return r * 180 / math.Pi }

// DistanceMeters returns the great-circle distance between a and b using the
// spherical law of cosines. The cosine is clamped to [-1,1] so near-identical
// and antipodal points never produce NaN. Identical points are exactly 0;
// the formula alone can round to a few centimetres.
func DistanceMeters(a, b model.Coordinate) float64 {
	if a == b {
		return 0
	}
	lat1 := DegreesToRadians(a.Lat)
	lat2 := DegreesToRadians(b.Lat)
	dLng := DegreesToRadians(b.Lng - a.Lng)

	x := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return EarthRadiusMeters * math.Acos(clamp(x, -1, 1))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
