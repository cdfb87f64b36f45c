package view

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/hexview/internal/cellinfo"
	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/grid"
	"github.com/mohammed-shakir/hexview/internal/grid/h3grid"
	"github.com/mohammed-shakir/hexview/internal/locator"
	mylog "github.com/mohammed-shakir/hexview/internal/logger"
)

type recordingSink struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recordingSink) FrameComputed(_ string, f Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func fixture() (*Composer, *locator.Locator, *h3grid.Grid, *recordingSink) {
	g := h3grid.New()
	sink := &recordingSink{}
	c := NewComposer(grid.NewComputer(g), cellinfo.New(g), sink)
	return c, locator.New(g), g, sink
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// nonCenterCell returns a res 8 cell near c that is not the center child of
// its parent, so its ring never compacts away.
func nonCenterCell(t *testing.T, g *h3grid.Grid, c model.Coordinate) model.CellID {
	t.Helper()
	parent, err := g.CellAt(c, 7)
	require.NoError(t, err)
	center, err := g.CenterChild(parent, 8)
	require.NoError(t, err)
	disk, err := g.Disk(center, 1)
	require.NoError(t, err)
	for _, id := range disk {
		if id != center {
			return id
		}
	}
	t.Fatalf("no sibling found around %s", center)
	return ""
}

func TestCompose_ZoomNineEndToEnd(t *testing.T) {
	c, _, _, sink := fixture()
	vp := model.Viewport{Center: model.Coordinate{Lat: 52, Lng: 5.1}, Zoom: 9}

	f, err := c.Compose(OriginView, vp, "")
	require.NoError(t, err)

	assert.Equal(t, 6, f.Resolution)
	require.GreaterOrEqual(t, len(f.Cells), 1)
	require.LessOrEqual(t, len(f.Cells), 7)
	for _, cell := range f.Cells {
		// compaction may lift a full sibling group to res 5
		assert.Contains(t, []int{5, 6}, cell.Resolution)
		assert.Greater(t, cell.AvgEdgeMeters, 1000.0)
		assert.Less(t, cell.AvgEdgeMeters, 12000.0)
		assert.False(t, cell.Selected)
	}
	assert.LessOrEqual(t, f.ReferenceBox.MinLat, f.ReferenceBox.MaxLat)
	assert.LessOrEqual(t, f.ReferenceBox.MinLng, f.ReferenceBox.MaxLng)
	assert.Equal(t, 1, sink.count())
}

func TestCompose_MarksSelected(t *testing.T) {
	c, _, g, _ := fixture()
	selected := nonCenterCell(t, g, model.Coordinate{Lat: 52, Lng: 5.1})
	ring, err := g.Boundary(selected)
	require.NoError(t, err)

	f, err := c.Compose(OriginView, model.Viewport{Center: mean(ring), Zoom: 16}, selected)
	require.NoError(t, err)

	n := 0
	for _, cell := range f.Cells {
		if cell.Selected {
			n++
			assert.Equal(t, selected, cell.ID)
			assert.True(t, cell.Labeled)
		}
	}
	assert.Equal(t, 1, n)
	assert.Equal(t, selected, f.Selected)
}

func TestSettle_JumpsToCell(t *testing.T) {
	c, loc, g, _ := fixture()
	target, _ := g.CellAt(model.Coordinate{Lat: 48.8566, Lng: 2.3522}, 7)

	f, err := c.Settle(loc, model.InitialState{Viewport: DefaultViewport, CellID: string(target)})
	require.NoError(t, err)
	assert.Equal(t, 13, f.Viewport.Zoom)
	assert.Equal(t, 7, f.Resolution)
	assert.InDelta(t, 48.8566, f.Viewport.Center.Lat, 0.1)

	f, err = c.Settle(loc, model.InitialState{Viewport: DefaultViewport, CellID: "garbage"})
	require.NoError(t, err)
	assert.Equal(t, DefaultViewport, f.Viewport, "invalid startup cell is a no-op")
}

func TestSession_StartWithoutCell(t *testing.T) {
	c, loc, _, _ := fixture()
	s := NewSession("s1", c, loc, quiet())

	f, done, err := s.Start(context.Background(), model.InitialState{Viewport: DefaultViewport}, time.Hour)
	require.NoError(t, err)
	select {
	case <-done:
	default:
		t.Fatalf("startup without cell must complete immediately")
	}
	assert.Equal(t, 1, f.Resolution)
	assert.Equal(t, f, s.Frame())
}

func TestSession_StartDefersCellLookup(t *testing.T) {
	c, loc, g, _ := fixture()
	target := nonCenterCell(t, g, model.Coordinate{Lat: 59.3293, Lng: 18.0686})
	s := NewSession("s2", c, loc, quiet())

	first, done, err := s.Start(context.Background(),
		model.InitialState{Viewport: DefaultViewport, CellID: string(target)}, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, DefaultViewport, first.Viewport, "first frame uses the initial viewport")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("deferred lookup did not run")
	}
	f := s.Frame()
	assert.Equal(t, 24, f.Viewport.Zoom)
	assert.Equal(t, 8, f.Resolution)
	assert.Equal(t, target, f.Selected)
	found := false
	for _, cell := range f.Cells {
		if cell.ID == target {
			found = cell.Selected
		}
	}
	assert.True(t, found, "searched cell must be drawn selected")
}

func TestSession_StartCancelledBeforeLookup(t *testing.T) {
	c, loc, g, _ := fixture()
	target, _ := g.CellAt(model.Coordinate{Lat: 59.3293, Lng: 18.0686}, 8)
	s := NewSession("s3", c, loc, quiet())

	ctx, cancel := context.WithCancel(context.Background())
	_, done, err := s.Start(ctx, model.InitialState{Viewport: DefaultViewport, CellID: string(target)}, time.Hour)
	require.NoError(t, err)
	cancel()
	<-done
	assert.Equal(t, DefaultViewport, s.Frame().Viewport)
}

func TestSession_EventsReplaceFrame(t *testing.T) {
	c, loc, _, _ := fixture()
	s := NewSession("s4", c, loc, quiet())
	_, _, err := s.Start(context.Background(), model.InitialState{Viewport: DefaultViewport}, 0)
	require.NoError(t, err)

	f, err := s.SetView(model.Viewport{Center: model.Coordinate{Lat: 40.7128, Lng: -74.006}, Zoom: 13})
	require.NoError(t, err)
	assert.Equal(t, 7, f.Resolution)
	assert.Equal(t, f, s.Frame())

	f, err = s.SetZoom(30)
	require.NoError(t, err)
	assert.Equal(t, model.MaxZoom, f.Viewport.Zoom, "zoom is clamped like the map widget")
	assert.Equal(t, 40.7128, f.Viewport.Center.Lat)

	f, err = s.SetZoom(1)
	require.NoError(t, err)
	assert.Equal(t, model.MinZoom, f.Viewport.Zoom)
}

func TestSession_InvalidInputIsNoop(t *testing.T) {
	c, loc, _, _ := fixture()
	s := NewSession("s5", c, loc, quiet())
	before, _, err := s.Start(context.Background(), model.InitialState{Viewport: DefaultViewport}, 0)
	require.NoError(t, err)

	f, moved, err := s.Goto("200,10")
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, before, f)

	f, moved, err = s.Search("not-a-cell")
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, before.Viewport, f.Viewport)
}

func TestSession_SearchIgnoresCase(t *testing.T) {
	c, loc, g, _ := fixture()
	s := NewSession("s8", c, loc, quiet())
	_, _, err := s.Start(context.Background(), model.InitialState{Viewport: DefaultViewport}, 0)
	require.NoError(t, err)

	id := nonCenterCell(t, g, model.Coordinate{Lat: 52.37, Lng: 4.89})
	f, moved, err := s.Search(strings.ToUpper(string(id)))
	require.NoError(t, err)
	require.True(t, moved)
	assert.Equal(t, id, f.Selected)

	var marked []model.CellID
	for _, ci := range f.Cells {
		if ci.Selected {
			marked = append(marked, ci.ID)
		}
	}
	assert.Equal(t, []model.CellID{id}, marked)
}

func TestSession_LogsCarrySessionID(t *testing.T) {
	var buf bytes.Buffer
	zl := mylog.Build(mylog.Config{Level: "debug"}, &buf)
	c, loc, _, _ := fixture()
	s := NewSession("s9", c, loc, mylog.NewSlog(&zl))
	_, _, err := s.Start(context.Background(), model.InitialState{Viewport: DefaultViewport}, 0)
	require.NoError(t, err)

	_, _, err = s.Search("not-a-cell")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		assert.Equal(t, "s9", rec["session_id"], line)
	}
	assert.Contains(t, buf.String(), "search did not resolve")
}

func TestSession_Goto(t *testing.T) {
	c, loc, _, _ := fixture()
	s := NewSession("s6", c, loc, quiet())
	_, _, err := s.Start(context.Background(), model.InitialState{Viewport: DefaultViewport}, 0)
	require.NoError(t, err)

	f, moved, err := s.Goto("52,5.1")
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, model.Viewport{Center: model.Coordinate{Lat: 52, Lng: 5.1}, Zoom: 16}, f.Viewport)
	assert.Equal(t, 8, f.Resolution)
}

func TestSessions_CreateGetDeleteAndEvict(t *testing.T) {
	c, loc, _, _ := fixture()
	reg, err := NewSessions(context.Background(), 2, c, loc, 0, quiet())
	require.NoError(t, err)

	a, fa, err := reg.Create(model.InitialState{Viewport: DefaultViewport})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID())
	assert.Equal(t, 1, fa.Resolution)

	got, ok := reg.Get(a.ID())
	require.True(t, ok)
	assert.Same(t, a, got)

	b, _, _ := reg.Create(model.InitialState{Viewport: DefaultViewport})
	_, _, _ = reg.Create(model.InitialState{Viewport: DefaultViewport})
	assert.Equal(t, 2, reg.Len())
	_, ok = reg.Get(a.ID())
	assert.False(t, ok, "oldest session is evicted")

	assert.True(t, reg.Delete(b.ID()))
	assert.False(t, reg.Delete(b.ID()))
}

func TestInitialState_Defaults(t *testing.T) {
	st, err := ParseInitialState("", DefaultViewport)
	require.NoError(t, err)
	assert.Equal(t, model.InitialState{Viewport: DefaultViewport}, st)

	st, err = ParseInitialState("?zoom=9&lat=59.3&lng=18.07&h3=861f8a6b7ffffff", DefaultViewport)
	require.NoError(t, err)
	assert.Equal(t, 9, st.Viewport.Zoom)
	assert.Equal(t, 59.3, st.Viewport.Center.Lat)
	assert.Equal(t, 18.07, st.Viewport.Center.Lng)
	assert.Equal(t, "861f8a6b7ffffff", st.CellID)

	st, err = ParseInitialState("zoom=abc&lat=&lng=x", DefaultViewport)
	require.NoError(t, err)
	assert.Equal(t, DefaultViewport, st.Viewport)
}

func TestFeatureCollection_ClosesRings(t *testing.T) {
	c, _, _, _ := fixture()
	f, err := c.Compose(OriginView, model.Viewport{Center: model.Coordinate{Lat: 52, Lng: 5.1}, Zoom: 14}, "")
	require.NoError(t, err)

	fc := FeatureCollection(f)
	require.Len(t, fc.Features, len(f.Cells)+1)

	for i, ft := range fc.Features[:len(f.Cells)] {
		assert.Equal(t, KindCell, ft.Properties["kind"])
		poly, ok := ft.Geometry.(orb.Polygon)
		require.True(t, ok)
		ring := poly[0]
		assert.Len(t, ring, len(f.Cells[i].Boundary)+1)
		assert.Equal(t, ring[0], ring[len(ring)-1])
		assert.Len(t, f.Cells[i].Boundary, len(ring)-1, "frame boundary stays open")
	}
	last := fc.Features[len(fc.Features)-1]
	assert.Equal(t, KindReferenceBox, last.Properties["kind"])

	b, err := json.Marshal(fc)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])
	assert.EqualValues(t, 8, decoded["resolution"])
}

func mean(vs []model.Coordinate) model.Coordinate {
	var out model.Coordinate
	for _, v := range vs {
		out.Lat += v.Lat
		out.Lng += v.Lng
	}
	out.Lat /= float64(len(vs))
	out.Lng /= float64(len(vs))
	return out
}
