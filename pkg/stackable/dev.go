package stackable

import (
	"context"
	"fmt"
	"net"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/vitebridge/vitebridge/internal/logger"
	"github.com/vitebridge/vitebridge/internal/oneshot"
	"github.com/vitebridge/vitebridge/pkg/config"
	"github.com/vitebridge/vitebridge/pkg/vite"
)

// DevServer wraps the dev-server engine directly: it builds engine
// server options from the normalized configuration, drives the engine's
// own listener, and derives the externally visible base path and URL
// from the engine's live configuration.
type DevServer struct {
	dir string
	cfg *config.Config

	newEngine vite.Factory
	engine    vite.Engine

	url string

	// basePath is computed once, on first metadata read, and reused
	// even if the engine's configuration changes afterwards.
	basePath   string
	baseCached bool
}

// NewDevServer creates a dev-server stackable for the application rooted
// at dir. The instance is constructed once per application root.
func NewDevServer(dir string, cfg *config.Config) *DevServer {
	return &DevServer{
		dir:       dir,
		cfg:       cfg,
		newEngine: vite.NewEngine,
	}
}

// SetEngineFactory replaces the engine factory. Must be called before
// Start; used by tests and by hosts embedding their own engine.
func (s *DevServer) SetEngineFactory(f vite.Factory) {
	s.newEngine = f
}

// Init confirms the installed engine satisfies the supported version
// range. It runs once per instance, before any server is started, so
// incompatible environments fail during setup rather than during
// request serving.
func (s *DevServer) Init(ctx context.Context) error {
	installed, err := vite.InstalledVersion(s.dir)
	if err != nil {
		return err
	}

	v, err := semver.NewVersion(installed)
	if err != nil {
		return fmt.Errorf("stackable: invalid %s version %q: %w", vite.PackageName, installed, err)
	}
	rng, err := semver.NewConstraint(vite.SupportedRange)
	if err != nil {
		return fmt.Errorf("stackable: invalid version range %q: %w", vite.SupportedRange, err)
	}
	if !rng.Check(v) {
		return &UnsupportedVersionError{
			Package:   vite.PackageName,
			Installed: installed,
			Required:  vite.SupportedRange,
		}
	}

	logger.Debug("engine version check passed", "package", vite.PackageName, "installed", installed)
	return nil
}

// Start starts the engine listener and records the bound address as the
// public URL. Idempotent: if a URL is already recorded it is returned
// without creating a second engine instance.
func (s *DevServer) Start(ctx context.Context, opts StartOptions) (string, error) {
	if s.url != "" {
		return s.url, nil
	}

	srvOpts := s.serverOptions()

	// The listener signal is armed before the engine starts so the raw
	// server socket is obtainable once the engine performs the bind.
	ready := oneshot.New[net.Addr]()
	srvOpts.OnListen = ready.Resolve

	engine, err := s.newEngine(srvOpts)
	if err != nil {
		return "", err
	}
	if err := engine.Listen(ctx); err != nil {
		return "", err
	}

	addr, err := ready.Wait(ctx)
	if err != nil {
		_ = engine.Close(context.WithoutCancel(ctx))
		return "", err
	}

	s.engine = engine
	scheme := "http"
	if s.cfg.Server.HTTPS != nil {
		scheme = "https"
	}
	s.url = fmt.Sprintf("%s://%s", scheme, addr.String())

	logger.Info("dev server listening", "url", s.url)
	return s.url, nil
}

// Stop closes the engine instance. Not idempotent: stopping an already
// stopped instance is undefined and must be guarded by the caller.
func (s *DevServer) Stop(ctx context.Context) error {
	if s.engine == nil {
		return fmt.Errorf("stackable: dev server not started")
	}
	return s.engine.Close(ctx)
}

// Meta returns the metadata snapshot. The composer block appears only
// once Start has recorded a URL.
func (s *DevServer) Meta() Meta {
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

// WatchConfig always reports watch disabled: the engine's own file
// watching supersedes the host's watcher.
func (s *DevServer) WatchConfig() config.WatchConfig {
	return config.WatchConfig{Enabled: false}
}

// serverOptions derives engine server options from the configuration:
// loopback host and ephemeral port defaults, strict-port binding off so
// an occupied port is tolerated, HMR always on, a fixed local origin for
// asset rewriting, and screen clearing plus dependency pre-optimization
// both off so startup is deterministic and the host keeps the terminal.
func (s *DevServer) serverOptions() vite.ServerOptions {
	opts := vite.ServerOptions{
		Root:         s.dir,
		Base:         CleanBasePath(s.cfg.Application.BasePath),
		Host:         s.cfg.Server.Hostname,
		Port:         s.cfg.Server.Port,
		StrictPort:   false,
		HTTPS:        s.cfg.Server.HTTPS,
		CORS:         s.cfg.Server.CORS,
		HMR:          true,
		Origin:       vite.DefaultOrigin,
		ClearScreen:  false,
		OptimizeDeps: false,
	}
	if opts.Host == "" {
		opts.Host = config.DefaultHostname
	}
	if s.cfg.Vite.ConfigFile != "" {
		p := s.cfg.Vite.ConfigFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.dir, p)
		}
		opts.ConfigFile = p
	}
	return opts
}

// prefix reads the engine's resolved base on first use and caches it.
func (s *DevServer) prefix() string {
	if !s.baseCached {
		base := ""
		if s.engine != nil {
			base = s.engine.ResolvedBase()
		}
		s.basePath = Prefix(base)
		s.baseCached = true
	}
	return s.basePath
}
