// Package view composes drawable frames from map viewports and holds the
// per-map session state that rendering adapters own.
package view

import (
	"fmt"
	"time"

	"github.com/mohammed-shakir/hexview/internal/bounds"
	"github.com/mohammed-shakir/hexview/internal/cellinfo"
	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/core/observability"
	"github.com/mohammed-shakir/hexview/internal/grid"
	"github.com/mohammed-shakir/hexview/internal/locator"
	"github.com/mohammed-shakir/hexview/internal/resolution"
)

const OriginView = "view"

// Frame is everything a renderer needs to draw one viewport.
type Frame struct {
	Viewport     model.Viewport  `json:"viewport"`
	Resolution   int             `json:"resolution"`
	Cells        []cellinfo.Info `json:"cells"`
	ReferenceBox model.BBox      `json:"reference_box"`
	Selected     model.CellID    `json:"selected,omitempty"`
}

// FrameSink is told about every computed frame.
type FrameSink interface {
	FrameComputed(origin string, f Frame)
}

type Composer struct {
	cells grid.Source
	info  *cellinfo.Describer
	sink  FrameSink
}

func NewComposer(cells grid.Source, info *cellinfo.Describer, sink FrameSink) *Composer {
	return &Composer{cells: cells, info: info, sink: sink}
}

// Compose builds the frame for vp. selected marks the cell a search is
// currently pointing at; it may be empty or not part of the frame.
func (c *Composer) Compose(origin string, vp model.Viewport, selected model.CellID) (Frame, error) {
	start := time.Now()
	res := resolution.ForZoom(vp.Zoom)

	ids, err := c.cells.ComputeCells(vp.Center, res)
	if err != nil {
		return Frame{}, fmt.Errorf("compute cells: %w", err)
	}
	infos := make([]cellinfo.Info, 0, len(ids))
	for _, id := range ids {
		info, err := c.info.Describe(id, id == selected)
		if err != nil {
			return Frame{}, fmt.Errorf("describe %s: %w", id, err)
		}
		infos = append(infos, info)
	}

	f := Frame{
		Viewport:     vp,
		Resolution:   res,
		Cells:        infos,
		ReferenceBox: bounds.Estimate(vp.Center, vp.Zoom),
		Selected:     selected,
	}
	observability.ObserveFrame(origin, len(infos), time.Since(start).Seconds())
	if c.sink != nil {
		c.sink.FrameComputed(origin, f)
	}
	return f, nil
}

// Settle returns the frame a new map ends up showing for init: the initial
// viewport, or the named cell's viewport when init.CellID resolves. It is
// the synchronous form of Session.Start.
func (c *Composer) Settle(loc *locator.Locator, init model.InitialState) (Frame, error) {
	vp := init.Viewport
	if init.CellID != "" {
		if l, ok := loc.ResolveCell(init.CellID); ok {
			vp = l.Viewport
		}
	}
	vp.Zoom = clampZoom(vp.Zoom)
	return c.Compose(OriginView, vp, model.NormalizeCellID(init.CellID))
}
