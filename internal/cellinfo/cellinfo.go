// Package cellinfo derives the per-cell quantities shown in tooltips.
package cellinfo

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/geo"
	"github.com/mohammed-shakir/hexview/internal/grid"
)

var ErrDegenerateBoundary = errors.New("boundary needs at least 2 vertices")

// labelShare of cells get a text label, out of labelDenom.
const (
	labelShare = 2000
	labelDenom = 10000
)

type Info struct {
	ID            model.CellID       `json:"id"`
	Resolution    int                `json:"resolution"`
	Boundary      []model.Coordinate `json:"boundary"`
	AvgEdgeMeters float64            `json:"avg_edge_m"`
	AreaM2        float64            `json:"area_m2"`
	Selected      bool               `json:"selected"`
	Labeled       bool               `json:"labeled"`
	Tooltip       string             `json:"tooltip"`
}

type Describer struct {
	sys grid.System
}

func New(sys grid.System) *Describer { return &Describer{sys: sys} }

// Boundary returns the open vertex ring of cell. Renderers close it.
func (d *Describer) Boundary(cell model.CellID) ([]model.Coordinate, error) {
	return d.sys.Boundary(cell)
}

func (d *Describer) Area(cell model.CellID) (float64, error) {
	return d.sys.AreaM2(cell)
}

// AverageEdgeLength is the mean distance between consecutive vertices of an
// open ring: N vertices give N-1 edges, the closing edge is not counted.
func AverageEdgeLength(boundary []model.Coordinate) (float64, error) {
	if len(boundary) < 2 {
		return 0, ErrDegenerateBoundary
	}
	var total float64
	for i := 1; i < len(boundary); i++ {
		total += geo.DistanceMeters(boundary[i-1], boundary[i])
	}
	return total / float64(len(boundary)-1), nil
}

func (d *Describer) Describe(cell model.CellID, selected bool) (Info, error) {
	res, err := d.sys.Resolution(cell)
	if err != nil {
		return Info{}, fmt.Errorf("resolution of %s: %w", cell, err)
	}
	b, err := d.sys.Boundary(cell)
	if err != nil {
		return Info{}, fmt.Errorf("boundary of %s: %w", cell, err)
	}
	edge, err := AverageEdgeLength(b)
	if err != nil {
		return Info{}, fmt.Errorf("edge length of %s: %w", cell, err)
	}
	area, err := d.sys.AreaM2(cell)
	if err != nil {
		return Info{}, fmt.Errorf("area of %s: %w", cell, err)
	}
	return Info{
		ID:            cell,
		Resolution:    res,
		Boundary:      b,
		AvgEdgeMeters: edge,
		AreaM2:        area,
		Selected:      selected,
		Labeled:       selected || ShouldLabel(cell),
		Tooltip:       Tooltip(cell, edge, area),
	}, nil
}

// ShouldLabel picks a stable ~20% of cells for text labels.
func ShouldLabel(cell model.CellID) bool {
	return xxhash.Sum64String(string(cell))%labelDenom < labelShare
}

func Tooltip(cell model.CellID, edgeMeters, areaM2 float64) string {
	return fmt.Sprintf("Cell ID: %s\nAverage edge length (m): %s\nCell area (m^2): %s",
		cell, formatNumber(edgeMeters), formatNumber(areaM2))
}

// formatNumber renders n with thousands separators and up to 3 decimals.
func formatNumber(n float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprint(number.Decimal(n, number.MaxFractionDigits(3)))
}
