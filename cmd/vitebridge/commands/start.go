package commands

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitebridge/vitebridge/internal/composer"
	"github.com/vitebridge/vitebridge/internal/logger"
	"github.com/vitebridge/vitebridge/internal/watcher"
	"github.com/vitebridge/vitebridge/pkg/config"
	"github.com/vitebridge/vitebridge/pkg/stackable"
)

var composerPort int

var startCmd = &cobra.Command{
	Use:   "start [directory]",
	Short: "Start the application",
	Long: `Start the application rooted at the given directory (default: the
current directory).

The operating mode is decided from configuration: a truthy vite.ssr
block runs the application's own server entrypoint, anything else the
dev-server engine. Either way the application is exposed through a
local preview composer under its configured base path.

Examples:
  # Start the application in the current directory
  vitebridge start

  # Start a specific application on a custom composer port
  vitebridge start ./my-app --port 4000

  # Start with environment variable overrides
  VITEBRIDGE_LOGGING_LEVEL=DEBUG vitebridge start`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVarP(&composerPort, "port", "p", composer.DefaultPort, "Preview composer port")
}

func runStart(cmd *cobra.Command, args []string) error {
	dir, err := resolveDir(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(dir, GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	holder := &stackableHolder{}
	if err := holder.boot(ctx, dir, cfg); err != nil {
		return err
	}
	defer func() {
		if err := holder.shutdown(context.Background()); err != nil {
			logger.Error("application shutdown error", "error", err)
		}
	}()

	// SSR-mode applications do not watch their own sources, so the host
	// watches and restarts them. Dev mode relies on the engine's watcher.
	if cfg.Watch.Enabled && cfg.Vite.SSR != nil {
		w := watcher.New(watcher.Config{
			Dir:    dir,
			Allow:  cfg.Watch.Allow,
			Ignore: cfg.Watch.Ignore,
		})
		w.OnChange(func(paths []string) {
			logger.Info("sources changed, restarting application", "changes", len(paths))
			if err := holder.restart(ctx, dir, cfg); err != nil {
				logger.Error("application restart failed", "error", err)
			}
		})
		go func() {
			if err := w.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("watcher stopped", "error", err)
			}
		}()
		logger.Info("watching for source changes", "dir", dir)
	}

	srv := composer.NewServer(composerPort, holder)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Composer shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Composer error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// stackableHolder carries the live stackable instance through
// watch-triggered restarts. Each restart builds a fresh instance, so the
// per-instance lifecycle rules (mode decided once, idempotent start,
// single stop) hold for every generation.
type stackableHolder struct {
	mu  sync.RWMutex
	stk stackable.Stackable
}

func (h *stackableHolder) boot(ctx context.Context, dir string, cfg *config.Config) error {
	stk := stackable.FromConfig(dir, cfg)
	if err := stk.Init(ctx); err != nil {
		return err
	}
	url, err := stk.Start(ctx, stackable.StartOptions{Listen: true})
	if err != nil {
		return err
	}
	logger.Info("application started", "url", url)

	h.mu.Lock()
	h.stk = stk
	h.mu.Unlock()
	return nil
}

func (h *stackableHolder) restart(ctx context.Context, dir string, cfg *config.Config) error {
	if err := h.shutdown(ctx); err != nil {
		logger.Warn("error stopping application before restart", "error", err)
	}
	if err := h.boot(ctx, dir, cfg); err != nil {
		return err
	}
	composer.AppRestarts.Inc()
	return nil
}

func (h *stackableHolder) shutdown(ctx context.Context) error {
	h.mu.Lock()
	stk := h.stk
	h.stk = nil
	h.mu.Unlock()
	if stk == nil {
		return nil
	}
	return stk.Stop(ctx)
}

// Meta exposes the current generation's metadata to the composer.
func (h *stackableHolder) Meta() stackable.Meta {
	h.mu.RLock()
	stk := h.stk
	h.mu.RUnlock()
	if stk == nil {
		return stackable.Meta{}
	}
	return stk.Meta()
}

func (h *stackableHolder) Init(ctx context.Context) error { return nil }

func (h *stackableHolder) Start(ctx context.Context, opts stackable.StartOptions) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.stk == nil {
		return "", nil
	}
	return h.stk.Start(ctx, opts)
}

func (h *stackableHolder) Stop(ctx context.Context) error {
	return h.shutdown(ctx)
}

func (h *stackableHolder) WatchConfig() config.WatchConfig {
	return config.WatchConfig{Enabled: false}
}
