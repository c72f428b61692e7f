package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/shellwin"
	"github.com/1broseidon/shellwin/internal/config"
	"github.com/1broseidon/shellwin/internal/ipc"
	"github.com/1broseidon/shellwin/internal/platform"
)

// runDaemon opens the configured window and drives the event loop on the
// main goroutine until SIGINT or SIGTERM.
func runDaemon(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/shellwin/config.yaml)")
	backendFlag := fs.String("backend", "", "Override the configured backend (auto, wayland, x11)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: shellwin run [--path PATH] [--backend auto|wayland|x11]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Open the configured window and serve IPC requests until interrupted.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	res, err := loadConfigResult(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg := res.Config
	if *backendFlag != "" {
		kind, err := platform.ParseBackendKind(*backendFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		cfg.Backend = kind
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	logger.Info("configuration loaded", "files", len(res.Files), "backend", cfg.Backend.String(), "layer_shell", cfg.LayerShell != nil)

	loop, err := shellwin.NewEventLoopBuilder().
		WithBackend(cfg.Backend).
		WithAnyThread(cfg.AnyThread).
		WithPumpInterval(cfg.PumpInterval).
		WithDisplay(cfg.Display).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitors, err := loop.AvailableMonitors(ctx)
	if err != nil {
		logger.Warn("failed to list monitors", "error", err)
	}
	win, err := windowBuilder(cfg, monitors, logger).Build(ctx, loop)
	if err != nil {
		logger.Error("failed to create window", "error", err)
		loop.Close()
		return 1
	}

	srv, err := ipc.NewServer(ipc.ServerConfig{
		Surface:  win,
		Monitors: monitorSource(loop),
		Backend:  loop.Backend().String(),
		Logger:   logger,
	})
	if err == nil {
		err = srv.Start()
	}
	if err != nil {
		logger.Error("failed to start IPC server", "error", err)
		loop.Close()
		return 1
	}
	defer srv.Stop()

	if err := loop.Run(ctx); err != nil {
		logger.Error("event loop failed", "error", err)
		return 1
	}
	logger.Info("shellwin stopped")
	return 0
}

// windowBuilder turns the configuration into a window builder. A configured
// output that is not among monitors is dropped so the compositor chooses.
func windowBuilder(cfg *config.Config, monitors []shellwin.MonitorHandle, logger *slog.Logger) *shellwin.WindowBuilder {
	b := shellwin.NewWindowBuilder().
		WithName(cfg.AppID, cfg.Instance).
		WithTitle(cfg.Title)

	ls := cfg.LayerShell
	if ls == nil {
		return b
	}
	b.WithLayerShell(ls.Layer).
		WithAnchor(ls.Anchor).
		WithExclusiveZone(ls.ExclusiveZone).
		WithMargin(ls.Margin.Top, ls.Margin.Right, ls.Margin.Bottom, ls.Margin.Left).
		WithSize(ls.Size.Width, ls.Size.Height).
		WithKeyboardInteractivity(ls.KeyboardInteractivity)

	if ls.Output == 0 {
		return b
	}
	for _, m := range monitors {
		if m.NativeID() == ls.Output {
			return b.WithOutput(m)
		}
	}
	logger.Warn("configured output not found, letting the compositor choose", "output", ls.Output)
	return b
}

func monitorSource(loop *shellwin.EventLoop) ipc.MonitorSource {
	return func(ctx context.Context) ([]ipc.MonitorInfo, error) {
		handles, err := loop.AvailableMonitors(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]ipc.MonitorInfo, len(handles))
		for i, h := range handles {
			b := h.Bounds()
			out[i] = ipc.MonitorInfo{
				NativeID: h.NativeID(),
				Name:     h.Name(),
				X:        b.X,
				Y:        b.Y,
				Width:    b.Width,
				Height:   b.Height,
			}
		}
		return out, nil
	}
}
