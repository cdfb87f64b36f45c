// Package bounds estimates the reference box drawn around the map center.
//
// The box uses a flat-earth small-angle approximation and is only a visual
// aid. It is not used for cell selection. Known limitations: the longitude
// delta grows without bound as |lat| approaches 90, and boxes crossing the
// antimeridian are not wrapped.
package bounds

import (
	"math"

	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/geo"
)

// RadiusMeters returns the half-size of the box for a zoom level.
func RadiusMeters(zoom int) float64 {
	switch {
	case zoom >= 15:
		return 2000
	case zoom >= 14:
		return 4000
	case zoom >= 9:
		return 8000
	default:
		return 36000
	}
}

func Estimate(center model.Coordinate, zoom int) model.BBox {
	r := RadiusMeters(zoom)
	dLat := (r / geo.EarthRadiusMeters) * (180 / math.Pi)
	dLng := dLat / math.Cos(geo.DegreesToRadians(center.Lat))

	return model.BBox{
		MinLat: center.Lat - dLat,
		MaxLat: center.Lat + dLat,
		MinLng: center.Lng - dLng,
		MaxLng: center.Lng + dLng,
	}
}
