package view

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/hexview/internal/core/model"
)

// DefaultViewport is the startup view when no query parameters are given.
var DefaultViewport = model.Viewport{
	Center: model.Coordinate{Lat: 52, Lng: 5.1},
	Zoom:   5,
}

// InitialState reads zoom, lat, lng and h3 from query parameters. Missing or
// unparsable values fall back to def.
func InitialState(q url.Values, def model.Viewport) model.InitialState {
	vp := def
	if v := strings.TrimSpace(q.Get("zoom")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			vp.Zoom = n
		}
	}
	if v := strings.TrimSpace(q.Get("lat")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			vp.Center.Lat = f
		}
	}
	if v := strings.TrimSpace(q.Get("lng")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			vp.Center.Lng = f
		}
	}
	return model.InitialState{
		Viewport: vp,
		CellID:   strings.TrimSpace(q.Get("h3")),
	}
}

// ParseInitialState accepts a raw query string with or without the leading '?'.
func ParseInitialState(raw string, def model.Viewport) (model.InitialState, error) {
	q, err := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(raw), "?"))
	if err != nil {
		return model.InitialState{}, err
	}
	return InitialState(q, def), nil
}
