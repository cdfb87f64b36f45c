package view

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/core/observability"
	"github.com/mohammed-shakir/hexview/internal/locator"
	mylog "github.com/mohammed-shakir/hexview/internal/logger"
)

// Sessions holds live map sessions. The least recently used session is
// dropped once the limit is reached.
type Sessions struct {
	ctx      context.Context
	cache    *lru.Cache[string, *Session]
	composer *Composer
	locator  *locator.Locator
	delay    time.Duration
	logger   *slog.Logger
}

// NewSessions builds a registry. ctx bounds the deferred startup work of
// every session it creates.
func NewSessions(ctx context.Context, size int, composer *Composer, loc *locator.Locator, delay time.Duration, logger *slog.Logger) (*Sessions, error) {
	if size <= 0 {
		size = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	c, err := lru.NewWithEvict[string, *Session](size, func(id string, _ *Session) {
		logger.DebugContext(mylog.WithSession(ctx, id), "session evicted")
	})
	if err != nil {
		return nil, err
	}
	return &Sessions{
		ctx:      ctx,
		cache:    c,
		composer: composer,
		locator:  loc,
		delay:    delay,
		logger:   logger,
	}, nil
}

// Create starts a session from init and returns it with its first frame.
func (r *Sessions) Create(init model.InitialState) (*Session, Frame, error) {
	s := NewSession(uuid.NewString(), r.composer, r.locator, r.logger)
	f, _, err := s.Start(r.ctx, init, r.delay)
	if err != nil {
		return nil, Frame{}, err
	}
	r.cache.Add(s.ID(), s)
	observability.SetSessionsActive(r.cache.Len())
	return s, f, nil
}

func (r *Sessions) Get(id string) (*Session, bool) {
	return r.cache.Get(id)
}

func (r *Sessions) Delete(id string) bool {
	ok := r.cache.Remove(id)
	observability.SetSessionsActive(r.cache.Len())
	return ok
}

func (r *Sessions) Len() int { return r.cache.Len() }
