package cellinfo

import (
	"errors"
	"strings"
	"testing"

	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/geo"
	"github.com/mohammed-shakir/hexview/internal/grid"
	"github.com/mohammed-shakir/hexview/internal/grid/h3grid"
)

func TestAverageEdgeLength_OpenRing(t *testing.T) {
	ring := []model.Coordinate{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}, {Lat: 1, Lng: 1}}
	got, err := AverageEdgeLength(ring)
	if err != nil {
		t.Fatalf("AverageEdgeLength: %v", err)
	}
	want := (geo.DistanceMeters(ring[0], ring[1]) + geo.DistanceMeters(ring[1], ring[2])) / 2
	if got != want {
		t.Fatalf("avg=%v want %v (closing edge must not be counted)", got, want)
	}
}

func TestAverageEdgeLength_Degenerate(t *testing.T) {
	for _, ring := range [][]model.Coordinate{nil, {{Lat: 1, Lng: 1}}} {
		if _, err := AverageEdgeLength(ring); !errors.Is(err, ErrDegenerateBoundary) {
			t.Fatalf("ring of %d vertices: err=%v want ErrDegenerateBoundary", len(ring), err)
		}
	}
}

func TestDescribe_RealCell(t *testing.T) {
	g := h3grid.New()
	c, _ := g.CellAt(model.Coordinate{Lat: 52, Lng: 5.1}, 6)

	info, err := New(g).Describe(c, true)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if info.Resolution != 6 || info.ID != c {
		t.Fatalf("unexpected info header: %+v", info)
	}
	if len(info.Boundary) != 6 {
		t.Fatalf("boundary len=%d want 6", len(info.Boundary))
	}
	// res 6 edges average ~3.2 km
	if info.AvgEdgeMeters < 2000 || info.AvgEdgeMeters > 5000 {
		t.Fatalf("res 6 avg edge=%v outside plausible range", info.AvgEdgeMeters)
	}
	if info.AreaM2 <= 0 {
		t.Fatalf("area must be positive")
	}
	if !info.Selected || !info.Labeled {
		t.Fatalf("selected cell must be selected and labeled")
	}
	if !strings.Contains(info.Tooltip, string(c)) {
		t.Fatalf("tooltip does not mention cell id: %q", info.Tooltip)
	}
}

func TestDescribe_InvalidCell(t *testing.T) {
	if _, err := New(h3grid.New()).Describe("nope", false); !errors.Is(err, grid.ErrInvalidCell) {
		t.Fatalf("err=%v want ErrInvalidCell", err)
	}
}

func TestShouldLabel_StableShare(t *testing.T) {
	g := h3grid.New()
	origin, _ := g.CellAt(model.Coordinate{Lat: 52, Lng: 5.1}, 4)
	disk, _ := g.Disk(origin, 10)

	labeled := 0
	for _, c := range disk {
		if ShouldLabel(c) != ShouldLabel(c) {
			t.Fatalf("label decision must be stable")
		}
		if ShouldLabel(c) {
			labeled++
		}
	}
	share := float64(labeled) / float64(len(disk))
	if share < 0.08 || share > 0.35 {
		t.Fatalf("labeled share=%.2f of %d cells, want ~0.2", share, len(disk))
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:             "0",
		999:           "999",
		1000:          "1,000",
		1234567.8912:  "1,234,567.891",
		-3229.48:      "-3,229.48",
		36129062.1646: "36,129,062.165",
	}
	for in, want := range cases {
		if got := formatNumber(in); got != want {
			t.Fatalf("formatNumber(%v)=%q want %q", in, got, want)
		}
	}
}
