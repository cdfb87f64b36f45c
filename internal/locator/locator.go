// Package locator turns a cell id or "lat,lng" text into a map viewport.
//
// Input that does not resolve yields ok=false so callers can skip the
// navigation. It is never reported as an error.
package locator

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/grid"
	"github.com/mohammed-shakir/hexview/internal/resolution"
)

// GotoZoom is the close-in zoom used when jumping to a coordinate.
const GotoZoom = 16

// Location is where the map should move. Bounds, the box to fit, is only
// set for cell lookups.
type Location struct {
	Viewport model.Viewport `json:"viewport"`
	Bounds   *model.BBox    `json:"bounds,omitempty"`
	CellID   model.CellID   `json:"cell_id,omitempty"`
}

type Locator struct {
	sys grid.System
}

func New(sys grid.System) *Locator { return &Locator{sys: sys} }

// ResolveCell centers on the bounding box of the cell's vertices, zoomed to
// the representative zoom of the cell's resolution.
func (l *Locator) ResolveCell(id string) (Location, bool) {
	cell := model.NormalizeCellID(id)
	if !l.sys.Valid(string(cell)) {
		return Location{}, false
	}
	boundary, err := l.sys.Boundary(cell)
	if err != nil || len(boundary) == 0 {
		return Location{}, false
	}
	res, err := l.sys.Resolution(cell)
	if err != nil {
		return Location{}, false
	}

	first := orb.Point{boundary[0].Lng, boundary[0].Lat}
	bound := orb.Bound{Min: first, Max: first}
	for _, v := range boundary[1:] {
		bound = bound.Extend(orb.Point{v.Lng, v.Lat})
	}
	center := bound.Center()

	return Location{
		Viewport: model.Viewport{
			Center: model.Coordinate{Lat: center.Lat(), Lng: center.Lon()},
			Zoom:   resolution.NearestZoomFor(res),
		},
		Bounds: &model.BBox{
			MinLat: bound.Min.Lat(),
			MaxLat: bound.Max.Lat(),
			MinLng: bound.Min.Lon(),
			MaxLng: bound.Max.Lon(),
		},
		CellID: cell,
	}, true
}

// ResolveCoordinateText parses "lat,lng".
func (l *Locator) ResolveCoordinateText(text string) (Location, bool) {
	c, ok := ParseCoordinate(text)
	if !ok {
		return Location{}, false
	}
	return Location{Viewport: model.Viewport{Center: c, Zoom: GotoZoom}}, true
}

// ParseCoordinate accepts exactly two comma-separated finite numbers within
// the latitude and longitude ranges.
func ParseCoordinate(text string) (model.Coordinate, bool) {
	latS, lngS, found := strings.Cut(text, ",")
	if !found || strings.Contains(lngS, ",") {
		return model.Coordinate{}, false
	}
	lat, ok := parseFinite(latS)
	if !ok {
		return model.Coordinate{}, false
	}
	lng, ok := parseFinite(lngS)
	if !ok {
		return model.Coordinate{}, false
	}
	c := model.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return model.Coordinate{}, false
	}
	return c, true
}

func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
