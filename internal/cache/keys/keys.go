// Package keys builds cache keys for computed grid data.
package keys

import (
	"fmt"

	"github.com/mohammed-shakir/hexview/internal/core/model"
)

const (
	prefix = "hexview"
	// bump when the cached value layout changes
	version = 1
)

// CellSet is the key for the compacted k-ring around origin at res.
func CellSet(res int, origin string, k int) string {
	return fmt.Sprintf("%s:cellset:v%d:%d:%s:k=%d", prefix, version, res, normalizeCell(origin), k)
}

func normalizeCell(s string) string {
	return string(model.NormalizeCellID(s))
}
