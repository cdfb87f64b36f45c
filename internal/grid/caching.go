package grid

import (
	"fmt"

	"github.com/mohammed-shakir/hexview/internal/cache/keys"
	"github.com/mohammed-shakir/hexview/internal/core/model"
)

// Store caches computed cell sets. Implementations must treat backend
// failures as misses.
type Store interface {
	Get(key string) (model.CellSet, bool)
	Put(key string, cells model.CellSet)
}

// CachingComputer memoizes cell sets by origin cell. The neighbourhood only
// depends on the cell under the center, so every center inside the same
// cell shares one entry.
type CachingComputer struct {
	inner *Computer
	store Store
}

var _ Source = (*CachingComputer)(nil)

func NewCachingComputer(inner *Computer, store Store) *CachingComputer {
	return &CachingComputer{inner: inner, store: store}
}

func (c *CachingComputer) ComputeCells(center model.Coordinate, res int) (model.CellSet, error) {
	origin, err := c.inner.sys.CellAt(center, res)
	if err != nil {
		return nil, fmt.Errorf("cell at %s res=%d: %w", center, res, err)
	}
	k := keys.CellSet(res, string(origin), 1)
	if cells, ok := c.store.Get(k); ok {
		return cells, nil
	}
	cells, err := c.inner.CellsAround(origin)
	if err != nil {
		return nil, err
	}
	c.store.Put(k, cells)
	return cells, nil
}
