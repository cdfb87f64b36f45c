package cellsets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/hexview/internal/cache/redisstore"
	"github.com/mohammed-shakir/hexview/internal/core/model"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLocal_PutGet(t *testing.T) {
	s := New(Config{Size: 2}, nil, quiet())
	want := model.CellSet{"861969407ffffff", "86196940fffffff"}

	if _, ok := s.Get("k"); ok {
		t.Fatalf("empty store returned a hit")
	}
	s.Put("k", want)
	got, ok := s.Get("k")
	if !ok || !reflect.DeepEqual(got, want) {
		t.Fatalf("Get = %v,%v want %v", got, ok, want)
	}

	// mutating a returned set must not leak into the cache
	got[0] = "mutated"
	again, _ := s.Get("k")
	if again[0] != want[0] {
		t.Fatalf("cached value was mutated through returned slice")
	}
}

func TestLocal_EvictsOldest(t *testing.T) {
	s := New(Config{Size: 2}, nil, quiet())
	s.Put("a", model.CellSet{"a"})
	s.Put("b", model.CellSet{"b"})
	s.Put("c", model.CellSet{"c"})
	if _, ok := s.Get("a"); ok {
		t.Fatalf("expected a to be evicted")
	}
	if s.Len() != 2 {
		t.Fatalf("len=%d want 2", s.Len())
	}
}

func TestRemote_SharedAcrossStores(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rc, err := redisstore.New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })

	want := model.CellSet{"851969a3fffffff"}
	writer := New(Config{Size: 8, TTL: time.Minute}, rc, quiet())
	writer.Put("shared", want)

	if !mr.Exists("shared") {
		t.Fatalf("value was not written to redis")
	}
	if ttl := mr.TTL("shared"); ttl != time.Minute {
		t.Fatalf("ttl=%v want 1m", ttl)
	}

	reader := New(Config{Size: 8}, rc, quiet())
	got, ok := reader.Get("shared")
	if !ok || !reflect.DeepEqual(got, want) {
		t.Fatalf("reader Get = %v,%v want %v", got, ok, want)
	}
	if reader.Len() != 1 {
		t.Fatalf("remote hit should populate the local tier")
	}
}

type failingRemote struct{}

func (failingRemote) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}

func (failingRemote) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}

func TestRemote_FailuresAreMisses(t *testing.T) {
	s := New(Config{Size: 8}, failingRemote{}, quiet())
	if _, ok := s.Get("x"); ok {
		t.Fatalf("failing remote must read as miss")
	}
	s.Put("x", model.CellSet{"a"})
	if got, ok := s.Get("x"); !ok || len(got) != 1 {
		t.Fatalf("local tier must still serve after remote set failure")
	}
}
