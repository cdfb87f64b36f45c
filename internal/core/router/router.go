// Package router holds the HTTP handlers that expose frames, lookups and
// map sessions.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/core/observability"
	"github.com/mohammed-shakir/hexview/internal/locator"
	mylog "github.com/mohammed-shakir/hexview/internal/logger"
	"github.com/mohammed-shakir/hexview/internal/view"
)

const (
	FormatGeoJSON = "geojson"
	FormatJSON    = "json"
)

const maxBodyBytes = 1 << 16

// Deps are the collaborators the handlers share.
type Deps struct {
	Logger   *slog.Logger
	Composer *view.Composer
	Locator  *locator.Locator
	Sessions *view.Sessions
	Default  model.Viewport
}

// Routes mounts every handler on r. limit wraps the lookup routes.
func Routes(r chi.Router, d Deps, limit func(http.Handler) http.Handler) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if limit == nil {
		limit = func(h http.Handler) http.Handler { return h }
	}

	r.Get("/view", instrument("/view", HandleView(d)))

	r.With(limit).Get("/locate", instrument("/locate", HandleLocateCoordinate(d)))
	r.With(limit).Get("/locate/cell/{id}", instrument("/locate/cell/{id}", HandleLocateCell(d)))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", instrument("/sessions", HandleCreateSession(d)))
		r.Get("/{id}", instrument("/sessions/{id}", HandleGetSession(d)))
		r.Put("/{id}/view", instrument("/sessions/{id}/view", HandleSetView(d)))
		r.With(limit).Post("/{id}/search", instrument("/sessions/{id}/search", HandleSearch(d)))
		r.With(limit).Post("/{id}/goto", instrument("/sessions/{id}/goto", HandleGoto(d)))
		r.Delete("/{id}", instrument("/sessions/{id}", HandleDeleteSession(d)))
	})
}

// HandleView serves the settled frame for the startup parameters in the
// query string.
func HandleView(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		format, err := parseFormat(q.Get("format"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		init := view.InitialState(q, d.Default)
		f, err := d.Composer.Settle(d.Locator, init)
		if err != nil {
			d.Logger.WarnContext(r.Context(), "view failed", "err", err)
			http.Error(w, "cannot compute frame: "+err.Error(), http.StatusBadRequest)
			return
		}
		writeFrame(w, format, http.StatusOK, f)
	}
}

func HandleLocateCell(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, ok := d.Locator.ResolveCell(chi.URLParam(r, "id"))
		observability.IncLocate("cell", ok)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, loc)
	}
}

func HandleLocateCoordinate(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, ok := d.Locator.ResolveCoordinateText(r.URL.Query().Get("q"))
		observability.IncLocate("coordinate", ok)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, loc)
	}
}

type sessionResponse struct {
	ID    string     `json:"id"`
	Moved *bool      `json:"moved,omitempty"`
	Frame view.Frame `json:"frame"`
}

func HandleCreateSession(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		init := view.InitialState(r.URL.Query(), d.Default)
		s, f, err := d.Sessions.Create(init)
		if err != nil {
			d.Logger.WarnContext(r.Context(), "session create failed", "err", err)
			http.Error(w, "cannot start session: "+err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Location", "/sessions/"+s.ID())
		writeJSON(w, http.StatusCreated, sessionResponse{ID: s.ID(), Frame: f})
	}
}

func HandleGetSession(d Deps) http.HandlerFunc {
	return withSession(d, func(w http.ResponseWriter, r *http.Request, s *view.Session) {
		if strings.EqualFold(r.URL.Query().Get("format"), FormatGeoJSON) {
			writeFrame(w, FormatGeoJSON, http.StatusOK, s.Frame())
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{ID: s.ID(), Frame: s.Frame()})
	})
}

type viewRequest struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Zoom *int     `json:"zoom"`
}

// HandleSetView applies a viewport event. Omitted fields keep their
// current value, so {"zoom":9} is a zoomend.
func HandleSetView(d Deps) http.HandlerFunc {
	return withSession(d, func(w http.ResponseWriter, r *http.Request, s *view.Session) {
		var body viewRequest
		if err := decodeBody(w, r, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if body.Lat == nil && body.Lng == nil && body.Zoom == nil {
			http.Error(w, "expected at least one of lat, lng, zoom", http.StatusBadRequest)
			return
		}
		vp := s.Frame().Viewport
		if body.Lat != nil {
			vp.Center.Lat = *body.Lat
		}
		if body.Lng != nil {
			vp.Center.Lng = *body.Lng
		}
		if body.Zoom != nil {
			vp.Zoom = *body.Zoom
		}
		if !vp.Center.Valid() {
			http.Error(w, "coordinate out of range", http.StatusBadRequest)
			return
		}
		f, err := s.SetView(vp)
		if err != nil {
			d.Logger.WarnContext(r.Context(), "set view failed", "err", err)
			http.Error(w, "cannot compute frame: "+err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{ID: s.ID(), Frame: f})
	})
}

type searchRequest struct {
	H3 string `json:"h3"`
}

// HandleSearch looks up a cell id in a session. Ids that do not resolve
// leave the map where it is and report moved=false.
func HandleSearch(d Deps) http.HandlerFunc {
	return withSession(d, func(w http.ResponseWriter, r *http.Request, s *view.Session) {
		var body searchRequest
		if err := decodeBody(w, r, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, moved, err := s.Search(body.H3)
		observability.IncLocate("cell", moved)
		if err != nil {
			d.Logger.WarnContext(r.Context(), "search failed", "err", err)
			http.Error(w, "cannot compute frame: "+err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{ID: s.ID(), Moved: &moved, Frame: f})
	})
}

type gotoRequest struct {
	LatLng string `json:"latlng"`
}

func HandleGoto(d Deps) http.HandlerFunc {
	return withSession(d, func(w http.ResponseWriter, r *http.Request, s *view.Session) {
		var body gotoRequest
		if err := decodeBody(w, r, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, moved, err := s.Goto(body.LatLng)
		observability.IncLocate("coordinate", moved)
		if err != nil {
			d.Logger.WarnContext(r.Context(), "goto failed", "err", err)
			http.Error(w, "cannot compute frame: "+err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{ID: s.ID(), Moved: &moved, Frame: f})
	})
}

func HandleDeleteSession(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Sessions.Delete(chi.URLParam(r, "id")) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func withSession(d Deps, next func(http.ResponseWriter, *http.Request, *view.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := d.Sessions.Get(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		next(w, r.WithContext(mylog.WithSession(r.Context(), s.ID())), s)
	}
}

// instrument records request count and latency under the route pattern.
func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func parseFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "", FormatGeoJSON:
		return FormatGeoJSON, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want geojson or json)", raw)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid body: trailing data")
	}
	return nil
}

func writeFrame(w http.ResponseWriter, format string, code int, f view.Frame) {
	if format == FormatJSON {
		writeJSON(w, code, f)
		return
	}
	body, err := view.FeatureCollection(f).MarshalJSON()
	if err != nil {
		http.Error(w, "encode frame: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
