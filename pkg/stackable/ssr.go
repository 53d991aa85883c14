package stackable

import (
	"context"
	"fmt"

	"github.com/vitebridge/vitebridge/internal/logger"
	"github.com/vitebridge/vitebridge/internal/proc"
	"github.com/vitebridge/vitebridge/pkg/config"
	"github.com/vitebridge/vitebridge/pkg/noderun"
)

// AppRunner runs an application's own server entrypoint as a generic
// server process. noderun.Runner is the production implementation.
type AppRunner interface {
	Start(ctx context.Context) (string, error)
	Stop(ctx context.Context) error

	// ResolvedBase is the base path exposed by the running
	// application's own dev-tooling configuration.
	ResolvedBase() string
}

// RunnerFactory constructs an AppRunner from run options.
type RunnerFactory func(opts noderun.Options) AppRunner

// SSR runs the application as a server-rendering process instead of
// starting the dev-server engine's listener. It exposes the same
// lifecycle and metadata contract as DevServer, so the host cannot
// distinguish the operating mode from outside.
type SSR struct {
	dir        string
	cfg        *config.Config
	entrypoint string

	newRunner RunnerFactory
	runner    AppRunner

	url string

	// basePath is computed at Init time: empty string when unset,
	// otherwise leading-slash/no-trailing-slash form.
	basePath string

	prefixVal    string
	prefixCached bool
}

// NewSSR creates an SSR stackable for the application rooted at dir.
// The entrypoint comes from the normalized vite.ssr configuration.
func NewSSR(dir string, cfg *config.Config) *SSR {
	entrypoint := config.DefaultSSREntrypoint
	if cfg.Vite.SSR != nil && cfg.Vite.SSR.Entrypoint != "" {
		entrypoint = cfg.Vite.SSR.Entrypoint
	}
	return &SSR{
		dir:        dir,
		cfg:        cfg,
		entrypoint: entrypoint,
		newRunner: func(opts noderun.Options) AppRunner {
			return noderun.New(opts)
		},
	}
}

// SetRunnerFactory replaces the application runner factory. Must be
// called before Start; used by tests.
func (s *SSR) SetRunnerFactory(f RunnerFactory) {
	s.newRunner = f
}

// Init computes the normalized base path. No engine version check runs
// here: SSR mode never starts the engine's listener.
func (s *SSR) Init(ctx context.Context) error {
	s.basePath = CleanBasePath(s.cfg.Application.BasePath)
	return nil
}

// Start delegates to the generic runtime's start-and-listen sequence,
// injecting the dev-tooling globals first. Idempotent on a recorded URL.
func (s *SSR) Start(ctx context.Context, opts StartOptions) (string, error) {
	if s.url != "" {
		return s.url, nil
	}

	runner := s.newRunner(noderun.Options{
		Directory:  s.dir,
		Entrypoint: s.entrypoint,
		BasePath:   s.basePath,
		SSR:        true,
		Logger: noderun.LoggerIdentity{
			Name:  logger.Name,
			Level: s.cfg.Logging.Level,
		},
		GracefulTimeout: proc.DefaultGracefulTimeout,
	})

	url, err := runner.Start(ctx)
	if err != nil {
		return "", err
	}

	s.runner = runner
	s.url = url
	logger.Info("ssr application listening", "url", s.url, "entrypoint", s.entrypoint)
	return s.url, nil
}

// Stop terminates the application process. Not idempotent; the host
// stops a running instance once.
func (s *SSR) Stop(ctx context.Context) error {
	if s.runner == nil {
		return fmt.Errorf("stackable: ssr application not started")
	}
	return s.runner.Stop(ctx)
}

// Meta mirrors the dev-server metadata contract, reading the resolved
// base path from the running application's exposed configuration.
func (s *SSR) Meta() Meta {
	meta := Meta{Deploy: s.cfg.Deploy}
	if s.url == "" {
		return meta
	}
	meta.Composer = &ComposerMeta{
		TCP:               true,
		URL:               s.url,
		Prefix:            s.prefix(),
		WantsAbsoluteURLs: true,
	}
	return meta
}

// WatchConfig always reports watch disabled, matching DevServer.
func (s *SSR) WatchConfig() config.WatchConfig {
	return config.WatchConfig{Enabled: false}
}

func (s *SSR) prefix() string {
	if !s.prefixCached {
		base := ""
		if s.runner != nil {
			base = s.runner.ResolvedBase()
		}
		s.prefixVal = Prefix(base)
		s.prefixCached = true
	}
	return s.prefixVal
}
