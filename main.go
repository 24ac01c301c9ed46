package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/stablefluid/colormap"
	"github.com/pthm-cable/stablefluid/config"
	"github.com/pthm-cable/stablefluid/game"
	"github.com/pthm-cable/stablefluid/server"
	"github.com/pthm-cable/stablefluid/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	serveAddr := flag.String("serve", "", "Stream frames over websocket on this address (e.g. :8080)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "Seed for the noise preset (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Solver ticks per update call (higher = faster headless runs)")
	preset := flag.String("preset", "", "Initial field preset (empty = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		Preset:         *preset,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		StepsPerUpdate: *stepsPerUpdate,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case *headless && *serveAddr == "":
		err = runHeadless(ctx, opts, *maxTicks)
	case *headless:
		err = runServer(ctx, opts, cfg, *serveAddr, *maxTicks)
	default:
		err = runWindow(ctx, opts, cfg, *serveAddr, *maxTicks)
	}
	if err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

// runHeadless steps with the fixed configured dt as fast as possible.
func runHeadless(ctx context.Context, opts game.Options, maxTicks int) error {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"preset", g.Preset(),
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for ctx.Err() == nil {
		g.UpdateHeadless()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return nil
		}
	}
	return nil
}

// runServer steps in real time without a window and streams frames.
func runServer(ctx context.Context, opts game.Options, cfg *config.Config, addr string, maxTicks int) error {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	srv, err := startServer(g, cfg, addr)
	if err != nil {
		return err
	}
	defer shutdown(srv)

	interval := time.Second / time.Duration(max(cfg.Screen.TargetFPS, 1))
	if err := g.Run(ctx, interval, maxTicks); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runWindow opens the raylib viewer, optionally streaming at the same time.
func runWindow(ctx context.Context, opts game.Options, cfg *config.Config, addr string, maxTicks int) error {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Stable Fluids")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	v, err := viewer.New(g, opts.Seed)
	if err != nil {
		return err
	}
	defer v.Unload()

	if addr != "" {
		srv, err := startServer(g, cfg, addr)
		if err != nil {
			return err
		}
		defer shutdown(srv)
	}

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		v.Update()
		v.Draw()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
	return nil
}

type runningServer struct {
	http *http.Server
	ws   *server.Server
}

func startServer(g *game.Game, cfg *config.Config, addr string) (*runningServer, error) {
	palette, err := colormap.NewPalette(cfg.Render.Palette, float32(cfg.Render.DensityScale))
	if err != nil {
		return nil, err
	}
	ws := server.New(server.Options{
		Queue:         g.Queue(),
		Palette:       palette,
		FrameInterval: time.Duration(cfg.Server.FrameIntervalMS) * time.Millisecond,
		MaxClients:    cfg.Server.MaxClients,
		ConfigYAML:    g.ConfigYAML,
	})
	g.AddSink(ws)

	hs := &http.Server{Addr: addr, Handler: ws.Handler()}
	go func() {
		slog.Info("server starting", "addr", addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()
	return &runningServer{http: hs, ws: ws}, nil
}

func shutdown(s *runningServer) {
	s.ws.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}
