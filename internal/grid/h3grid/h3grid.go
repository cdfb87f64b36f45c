// Package h3grid implements grid.System on top of uber/h3-go.
package h3grid

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/grid"
)

type Grid struct{}

var _ grid.System = (*Grid)(nil)

func New() *Grid { return &Grid{} }

func (g *Grid) CellAt(c model.Coordinate, res int) (model.CellID, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: c.Lat, Lng: c.Lng}, res)
	if err != nil {
		return "", fmt.Errorf("h3 latlng to cell: %w", err)
	}
	return model.CellID(cell.String()), nil
}

func (g *Grid) Disk(cell model.CellID, k int) (model.CellSet, error) {
	c, err := parse(cell)
	if err != nil {
		return nil, err
	}
	disk, err := c.GridDisk(k)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk: %w", err)
	}
	return toSet(disk), nil
}

func (g *Grid) Compact(cells model.CellSet) (model.CellSet, error) {
	in, err := parseAll(cells)
	if err != nil {
		return nil, err
	}
	out, err := h3.CompactCells(in)
	if err != nil {
		return nil, fmt.Errorf("h3 compact: %w", err)
	}
	return toSet(out), nil
}

// Uncompact expands cells down to res. Cells finer than res are rejected.
func (g *Grid) Uncompact(cells model.CellSet, res int) (model.CellSet, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	in, err := parseAll(cells)
	if err != nil {
		return nil, err
	}
	out, err := h3.UncompactCells(in, res)
	if err != nil {
		return nil, fmt.Errorf("h3 uncompact: %w", err)
	}
	return toSet(out), nil
}

func (g *Grid) Valid(id string) bool {
	_, err := parse(model.CellID(id))
	return err == nil
}

func (g *Grid) Resolution(cell model.CellID) (int, error) {
	c, err := parse(cell)
	if err != nil {
		return 0, err
	}
	return c.Resolution(), nil
}

func (g *Grid) Boundary(cell model.CellID) ([]model.Coordinate, error) {
	c, err := parse(cell)
	if err != nil {
		return nil, err
	}
	b, err := c.Boundary()
	if err != nil {
		return nil, fmt.Errorf("h3 boundary: %w", err)
	}
	out := make([]model.Coordinate, 0, len(b))
	for _, v := range b {
		out = append(out, model.Coordinate{Lat: v.Lat, Lng: v.Lng})
	}
	return out, nil
}

func (g *Grid) AreaM2(cell model.CellID) (float64, error) {
	c, err := parse(cell)
	if err != nil {
		return 0, err
	}
	a, err := h3.CellAreaM2(c)
	if err != nil {
		return 0, fmt.Errorf("h3 cell area: %w", err)
	}
	return a, nil
}

// Parent returns the ancestor of cell at parentRes.
func (g *Grid) Parent(cell model.CellID, parentRes int) (model.CellID, error) {
	if err := validateRes(parentRes); err != nil {
		return "", err
	}
	c, err := parse(cell)
	if err != nil {
		return "", err
	}
	curRes := c.Resolution()
	if parentRes > curRes {
		return "", fmt.Errorf("parentRes %d must be <= cell resolution %d", parentRes, curRes)
	}
	if parentRes == curRes {
		return cell, nil
	}
	p, err := c.Parent(parentRes)
	if err != nil {
		return "", fmt.Errorf("h3 parent: %w", err)
	}
	return model.CellID(p.String()), nil
}

// CenterChild returns the child of cell at childRes that shares its center.
func (g *Grid) CenterChild(cell model.CellID, childRes int) (model.CellID, error) {
	if err := validateRes(childRes); err != nil {
		return "", err
	}
	c, err := parse(cell)
	if err != nil {
		return "", err
	}
	if childRes < c.Resolution() {
		return "", fmt.Errorf("childRes %d must be >= cell resolution %d", childRes, c.Resolution())
	}
	k, err := c.CenterChild(childRes)
	if err != nil {
		return "", fmt.Errorf("h3 center child: %w", err)
	}
	return model.CellID(k.String()), nil
}

// --- helpers ---

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

func parse(id model.CellID) (h3.Cell, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(id)); err != nil {
		return 0, fmt.Errorf("%w: %q: %v", grid.ErrInvalidCell, id, err)
	}
	if !c.IsValid() {
		return 0, fmt.Errorf("%w: %q", grid.ErrInvalidCell, id)
	}
	return c, nil
}

func parseAll(cells model.CellSet) ([]h3.Cell, error) {
	out := make([]h3.Cell, 0, len(cells))
	for _, id := range cells {
		c, err := parse(id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// toSet converts to ids, dropping the zero cells h3 uses as padding, sorted.
func toSet(cells []h3.Cell) model.CellSet {
	out := make(model.CellSet, 0, len(cells))
	for _, c := range cells {
		if c == 0 {
			continue
		}
		out = append(out, model.CellID(c.String()))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
