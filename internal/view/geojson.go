package view

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mohammed-shakir/hexview/internal/cellinfo"
	"github.com/mohammed-shakir/hexview/internal/core/model"
)

const (
	KindCell         = "cell"
	KindReferenceBox = "reference_box"
)

// FeatureCollection renders f as GeoJSON: one polygon per cell followed by
// the reference box. Rings are closed here, the core keeps them open.
func FeatureCollection(f Frame) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range f.Cells {
		fc.Append(cellFeature(c))
	}

	box := geojson.NewFeature(boxPolygon(f.ReferenceBox))
	box.Properties["kind"] = KindReferenceBox
	fc.Append(box)

	fc.ExtraMembers = geojson.Properties{
		"viewport":   f.Viewport,
		"resolution": f.Resolution,
	}
	if f.Selected != "" {
		fc.ExtraMembers["selected"] = f.Selected
	}
	return fc
}

func cellFeature(c cellinfo.Info) *geojson.Feature {
	ft := geojson.NewFeature(orb.Polygon{closedRing(c.Boundary)})
	ft.ID = string(c.ID)
	ft.Properties["kind"] = KindCell
	ft.Properties["id"] = string(c.ID)
	ft.Properties["resolution"] = c.Resolution
	ft.Properties["avg_edge_m"] = c.AvgEdgeMeters
	ft.Properties["area_m2"] = c.AreaM2
	ft.Properties["selected"] = c.Selected
	ft.Properties["labeled"] = c.Labeled
	ft.Properties["tooltip"] = c.Tooltip
	return ft
}

func closedRing(vs []model.Coordinate) orb.Ring {
	ring := make(orb.Ring, 0, len(vs)+1)
	for _, v := range vs {
		ring = append(ring, orb.Point{v.Lng, v.Lat})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

func boxPolygon(b model.BBox) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{b.MinLng, b.MinLat},
		{b.MaxLng, b.MinLat},
		{b.MaxLng, b.MaxLat},
		{b.MinLng, b.MaxLat},
		{b.MinLng, b.MinLat},
	}}
}
