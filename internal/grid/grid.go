// Package grid decides which cells to draw around a map center.
package grid

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mohammed-shakir/hexview/internal/core/model"
)

var ErrInvalidCell = errors.New("invalid cell")

// System is the hierarchical grid the computer runs on. The production
// implementation lives in grid/h3grid; tests may substitute their own.
type System interface {
	CellAt(c model.Coordinate, res int) (model.CellID, error)
	Disk(cell model.CellID, k int) (model.CellSet, error)
	Compact(cells model.CellSet) (model.CellSet, error)
	Valid(id string) bool
	Resolution(cell model.CellID) (int, error)
	Boundary(cell model.CellID) ([]model.Coordinate, error)
	AreaM2(cell model.CellID) (float64, error)
}

// Source yields the cell set for a center and resolution.
type Source interface {
	ComputeCells(center model.Coordinate, res int) (model.CellSet, error)
}

type Computer struct {
	sys System
}

var _ Source = (*Computer)(nil)

func NewComputer(sys System) *Computer { return &Computer{sys: sys} }

func (c *Computer) System() System { return c.sys }

// ComputeCells resolves the cell under center, expands it to its 1-ring and
// compacts complete sibling groups into their parent. The result is sorted.
func (c *Computer) ComputeCells(center model.Coordinate, res int) (model.CellSet, error) {
	origin, err := c.sys.CellAt(center, res)
	if err != nil {
		return nil, fmt.Errorf("cell at %s res=%d: %w", center, res, err)
	}
	return c.CellsAround(origin)
}

// CellsAround is ComputeCells for an already resolved origin cell.
func (c *Computer) CellsAround(origin model.CellID) (model.CellSet, error) {
	disk, err := c.sys.Disk(origin, 1)
	if err != nil {
		return nil, fmt.Errorf("disk around %s: %w", origin, err)
	}
	compacted, err := c.sys.Compact(uniq(disk))
	if err != nil {
		return nil, fmt.Errorf("compact %d cells: %w", len(disk), err)
	}
	return uniq(compacted), nil
}

// uniq returns a sorted copy without duplicates
func uniq(cells model.CellSet) model.CellSet {
	seen := make(map[model.CellID]struct{}, len(cells))
	out := make(model.CellSet, 0, len(cells))
	for _, c := range cells {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
