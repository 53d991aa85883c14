package stackable

import (
	"errors"

	"github.com/vitebridge/vitebridge/pkg/config"
)

// BuildOptions is the inbound construction contract from the host.
type BuildOptions struct {
	// Directory is the application root.
	Directory string

	// Config is the raw configuration tree. Nil yields defaults.
	Config map[string]any
}

// Build validates the configuration and constructs a not-yet-started
// stackable. The operating mode is decided here, exactly once per
// application instance, and never revisited: a truthy vite.ssr selects
// SSR mode, anything else the dev-server engine.
func Build(opts BuildOptions) (Stackable, error) {
	if opts.Directory == "" {
		return nil, errors.New("stackable: application directory is required")
	}
	cfg, err := config.FromMap(opts.Config)
	if err != nil {
		return nil, err
	}
	return FromConfig(opts.Directory, cfg), nil
}

// FromConfig constructs a stackable from an already validated
// configuration.
func FromConfig(dir string, cfg *config.Config) Stackable {
	if cfg.Vite.SSR != nil {
		return NewSSR(dir, cfg)
	}
	return NewDevServer(dir, cfg)
}
