// Command hexview prints the frame a map settles on for a startup query,
// e.g. hexview -query 'zoom=9&lat=52&lng=5.1' or hexview -h3 881f1d4b9ffffff.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mohammed-shakir/hexview/internal/cellinfo"
	"github.com/mohammed-shakir/hexview/internal/core/config"
	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/grid"
	"github.com/mohammed-shakir/hexview/internal/grid/h3grid"
	"github.com/mohammed-shakir/hexview/internal/locator"
	"github.com/mohammed-shakir/hexview/internal/logger"
	"github.com/mohammed-shakir/hexview/internal/view"
)

type options struct {
	query  string
	zoom   string
	lat    string
	lng    string
	h3     string
	format string
	delay  time.Duration
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("hexview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.query, "query", "", "startup query string (zoom, lat, lng, h3)")
	fs.StringVar(&o.zoom, "zoom", "", "initial zoom, overrides -query")
	fs.StringVar(&o.lat, "lat", "", "initial latitude, overrides -query")
	fs.StringVar(&o.lng, "lng", "", "initial longitude, overrides -query")
	fs.StringVar(&o.h3, "h3", "", "cell id to locate after startup, overrides -query")
	fs.StringVar(&o.format, "format", "geojson", "output format: geojson or json")
	fs.DurationVar(&o.delay, "delay", cfg.StartupDelay, "deferral before the startup cell lookup")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o.format != "geojson" && o.format != "json" {
		fmt.Fprintf(stderr, "unsupported -format %q\n", o.format)
		return 2
	}

	zl := logger.Build(logger.Config{
		Level:     "warn",
		Console:   true,
		Service:   "hexview",
		Component: "cli",
	}, stderr)
	appLog := logger.NewSlog(&zl)

	def := model.Viewport{
		Center: model.Coordinate{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng},
		Zoom:   cfg.DefaultZoom,
	}
	init, err := o.initialState(def)
	if err != nil {
		fmt.Fprintf(stderr, "invalid startup query: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g := h3grid.New()
	composer := view.NewComposer(grid.NewComputer(g), cellinfo.New(g), nil)
	s := view.NewSession("cli", composer, locator.New(g), appLog)

	_, done, err := s.Start(ctx, init, o.delay)
	if err != nil {
		fmt.Fprintf(stderr, "startup failed: %v\n", err)
		return 1
	}
	<-done

	if err := write(stdout, o.format, s.Frame()); err != nil {
		fmt.Fprintf(stderr, "write frame: %v\n", err)
		return 1
	}
	return 0
}

func (o options) initialState(def model.Viewport) (model.InitialState, error) {
	init, err := view.ParseInitialState(o.query, def)
	if err != nil {
		return model.InitialState{}, err
	}
	if o.zoom != "" {
		z, err := strconv.Atoi(o.zoom)
		if err != nil {
			return model.InitialState{}, fmt.Errorf("zoom: %w", err)
		}
		init.Viewport.Zoom = z
	}
	if o.lat != "" {
		v, err := strconv.ParseFloat(o.lat, 64)
		if err != nil {
			return model.InitialState{}, fmt.Errorf("lat: %w", err)
		}
		init.Viewport.Center.Lat = v
	}
	if o.lng != "" {
		v, err := strconv.ParseFloat(o.lng, 64)
		if err != nil {
			return model.InitialState{}, fmt.Errorf("lng: %w", err)
		}
		init.Viewport.Center.Lng = v
	}
	if o.h3 != "" {
		init.CellID = o.h3
	}
	return init, nil
}

func write(w io.Writer, format string, f view.Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if format == "json" {
		return enc.Encode(f)
	}
	return enc.Encode(view.FeatureCollection(f))
}
