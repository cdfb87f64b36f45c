package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/hexview/internal/cache/cellsets"
	"github.com/mohammed-shakir/hexview/internal/cache/redisstore"
	"github.com/mohammed-shakir/hexview/internal/cellinfo"
	"github.com/mohammed-shakir/hexview/internal/core/config"
	"github.com/mohammed-shakir/hexview/internal/core/health"
	"github.com/mohammed-shakir/hexview/internal/core/model"
	"github.com/mohammed-shakir/hexview/internal/core/observability"
	"github.com/mohammed-shakir/hexview/internal/core/router"
	"github.com/mohammed-shakir/hexview/internal/core/server"
	"github.com/mohammed-shakir/hexview/internal/grid"
	"github.com/mohammed-shakir/hexview/internal/grid/h3grid"
	"github.com/mohammed-shakir/hexview/internal/locator"
	"github.com/mohammed-shakir/hexview/internal/logger"
	"github.com/mohammed-shakir/hexview/internal/view"
	"github.com/mohammed-shakir/hexview/internal/viewevents"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// overriding listen address via flag
	addrFlag := flag.String("addr", "", "listen address")
	flag.Parse()

	cfg := config.FromEnv()
	if *addrFlag != "" {
		cfg.Addr = strings.TrimSpace(*addrFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "hexview",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting hexview",
		"addr", cfg.Addr,
		"version", Version,
		"redis", cfg.Cache.RedisAddr != "",
		"view_events", cfg.ViewEvents.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ready := map[string]health.Pinger{}
	var remote cellsets.Remote
	if cfg.Cache.RedisAddr != "" {
		rc, err := redisstore.New(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.Cache.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		remote = rc
		ready["redis"] = rc
	}

	g := h3grid.New()
	store := cellsets.New(cellsets.Config{
		Size:      cfg.Cache.Size,
		TTL:       cfg.Cache.TTL,
		OpTimeout: cfg.Cache.OpTimeout,
	}, remote, appLog)
	cells := grid.NewCachingComputer(grid.NewComputer(g), store)

	var sink view.FrameSink
	if cfg.ViewEvents.Enabled {
		pub, err := viewevents.NewPublisher(cfg.ViewEvents.Brokers, cfg.ViewEvents.Topic, cfg.ViewEvents.Queue, appLog)
		if err != nil {
			appLog.Error("view events producer failed", "brokers", cfg.ViewEvents.Brokers, "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("view events close", "err", err)
			}
		}()
		sink = pub
	}

	composer := view.NewComposer(cells, cellinfo.New(g), sink)
	loc := locator.New(g)
	sessions, err := view.NewSessions(ctx, cfg.SessionMax, composer, loc, cfg.StartupDelay, appLog)
	if err != nil {
		appLog.Error("session registry setup failed", "err", err)
		return 1
	}

	deps := router.Deps{
		Composer: composer,
		Locator:  loc,
		Sessions: sessions,
		Default: model.Viewport{
			Center: model.Coordinate{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng},
			Zoom:   cfg.DefaultZoom,
		},
	}
	if err := server.Run(ctx, cfg, appLog, deps, ready); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
