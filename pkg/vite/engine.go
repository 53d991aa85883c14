// Package vite drives the public lifecycle of a Vite dev-server engine
// installed in the application's node_modules tree. The engine's own
// module graph, HMR protocol, and bundler internals are out of scope;
// this package only starts and stops the engine and observes its bound
// listener and resolved base configuration.
package vite

import (
	"context"
	"net"

	"github.com/vitebridge/vitebridge/pkg/config"
)

// DefaultOrigin is the fixed local placeholder origin used by the engine
// for asset URL rewriting. The host composer rewrites it when routing.
const DefaultOrigin = "http://localhost"

// ServerOptions are the engine server options derived from the
// normalized configuration.
type ServerOptions struct {
	// Root is the application directory the engine is rooted at.
	Root string

	// ConfigFile is the absolute engine config file path, or empty to
	// let the engine discover its own default.
	ConfigFile string

	// Base is the normalized base path (single leading slash, no
	// trailing slash), or empty for no explicit base override.
	Base string

	// Host to bind.
	Host string

	// Port to bind; 0 selects an ephemeral port.
	Port int

	// StrictPort, when false, tolerates an occupied port by letting the
	// engine pick another.
	StrictPort bool

	// HTTPS, when set, serves over TLS. The key material itself lives
	// in the engine's own config file.
	HTTPS *config.HTTPSConfig

	// CORS enables permissive cross-origin headers.
	CORS bool

	// HMR is always enabled for dev serving.
	HMR bool

	// Origin is the public origin for asset URL rewriting.
	Origin string

	// ClearScreen is disabled by the adapter: the host controls
	// terminal output.
	ClearScreen bool

	// OptimizeDeps is disabled by the adapter for deterministic,
	// non-prefetching startup.
	OptimizeDeps bool

	// OnListen is armed before the engine starts and invoked exactly
	// once, with the bound address, when the engine's raw server socket
	// exists. This keeps URL computation engine-version-agnostic.
	OnListen func(addr net.Addr)
}

// Engine is the dev-server engine lifecycle as seen by the stackable.
type Engine interface {
	// Listen starts the engine's listener.
	Listen(ctx context.Context) error

	// Close shuts the engine down and releases its resources.
	Close(ctx context.Context) error

	// ResolvedBase returns the base path from the engine's live
	// configuration.
	ResolvedBase() string
}

// Factory constructs an engine from server options.
type Factory func(opts ServerOptions) (Engine, error)
