// Package cellsets caches computed cell sets in process and, optionally, in Redis.
package cellsets

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/core/observability"
	"github.com/mohammed-shakir/hexview/internal/grid"
)

// Remote is the shared tier, satisfied by *redisstore.Client.
type Remote interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Config struct {
	Size      int
	TTL       time.Duration
	OpTimeout time.Duration
}

type Store struct {
	local  *lru.Cache[string, model.CellSet]
	remote Remote
	cfg    Config
	logger *slog.Logger
}

var _ grid.Store = (*Store)(nil)

// New builds a store. remote may be nil for a process-local cache.
func New(cfg Config, remote Remote, logger *slog.Logger) *Store {
	if cfg.Size <= 0 {
		cfg.Size = 4096
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	c, _ := lru.New[string, model.CellSet](cfg.Size)
	return &Store{local: c, remote: remote, cfg: cfg, logger: logger}
}

func (s *Store) Get(key string) (model.CellSet, bool) {
	if cells, ok := s.local.Get(key); ok {
		observability.IncCellSetCache("local", "hit")
		return clone(cells), true
	}
	observability.IncCellSetCache("local", "miss")
	if s.remote == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.OpTimeout)
	defer cancel()

	raw, ok, err := s.remote.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cellset remote get failed", "key", key, "err", err)
		observability.IncCellSetCache("remote", "error")
		return nil, false
	}
	if !ok {
		observability.IncCellSetCache("remote", "miss")
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.logger.Warn("cellset remote value undecodable", "key", key, "err", err)
		observability.IncCellSetCache("remote", "error")
		return nil, false
	}
	cells := make(model.CellSet, len(ids))
	for i, id := range ids {
		cells[i] = model.CellID(id)
	}
	observability.IncCellSetCache("remote", "hit")
	s.local.Add(key, cells)
	return clone(cells), true
}

func (s *Store) Put(key string, cells model.CellSet) {
	s.local.Add(key, clone(cells))
	if s.remote == nil {
		return
	}
	b, err := json.Marshal(cells.Strings())
	if err != nil {
		s.logger.Warn("cellset encode failed", "key", key, "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.OpTimeout)
	defer cancel()
	if err := s.remote.Set(ctx, key, b, s.cfg.TTL); err != nil {
		s.logger.Warn("cellset remote set failed", "key", key, "err", err)
	}
}

func (s *Store) Len() int { return s.local.Len() }

// callers may reorder or append to what they get back
func clone(cells model.CellSet) model.CellSet {
	out := make(model.CellSet, len(cells))
	copy(out, cells)
	return out
}
