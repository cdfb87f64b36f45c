// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"strings"
)

// Zoom limits of the map widget. The core never enforces them; the
// session adapter clamps to them the way the map itself does.
const (
	MinZoom = 5
	MaxZoom = 24
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// Valid reports whether the coordinate lies in lat [-90,90], lng [-180,180].
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// BBox is an axis-aligned box in degrees. It does not wrap at the antimeridian.
type BBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLng, b.MinLat, b.MaxLng, b.MaxLat)
}

type Viewport struct {
	Center Coordinate `json:"center"`
	Zoom   int        `json:"zoom"`
}

type CellID string

// NormalizeCellID trims s and lowercases it. Grid systems emit lowercase
// hex ids, so this is the form to compare against.
func NormalizeCellID(s string) CellID {
	return CellID(strings.ToLower(strings.TrimSpace(s)))
}

type CellSet []CellID

// Strings returns the ids as plain strings.
func (s CellSet) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = string(c)
	}
	return out
}

// InitialState is the startup map state read from query parameters.
type InitialState struct {
	Viewport Viewport
	CellID   string
}
