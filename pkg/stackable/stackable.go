// Package stackable adapts a Vite-style dev-server application to the
// uniform lifecycle a host orchestration runtime manages its backends
// through: init, start, stop, and a metadata snapshot consumed by the
// host's reverse-proxy composer.
//
// Two implementations share the contract without sharing code: the
// dev-server stackable drives the engine's own listener, while the SSR
// stackable runs the application entrypoint as a generic server process.
// The factory in this package selects between them at construction time;
// from the outside the operating mode is indistinguishable.
package stackable

import (
	"context"

	"github.com/vitebridge/vitebridge/pkg/config"
)

// Stackable is the lifecycle contract exposed to the host runtime.
//
// Init runs exactly once before Start. Start may be invoked multiple
// times and is idempotent: once a URL is recorded, it is returned
// without starting a second underlying instance. The check-then-start
// sequence is not lock-guarded; callers are expected to await an
// in-flight start before issuing another. Stop releases the underlying
// handle and runs at most once per started instance.
type Stackable interface {
	// Init performs setup and compatibility checks. It may fail with
	// *UnsupportedVersionError.
	Init(ctx context.Context) error

	// Start brings the application up and returns its public URL.
	Start(ctx context.Context, opts StartOptions) (string, error)

	// Stop shuts the application down and releases resources.
	Stop(ctx context.Context) error

	// Meta returns the current metadata snapshot.
	Meta() Meta

	// WatchConfig reports whether the host should watch and restart
	// this application.
	WatchConfig() config.WatchConfig
}

// StartOptions carries host start directives.
type StartOptions struct {
	// Listen requests a bound, routable listener. Accepted for contract
	// compatibility with the host runtime and ignored: both operating
	// modes always listen, since a URL cannot be produced otherwise.
	Listen bool
}

// Meta is the read-only metadata snapshot computed on demand from
// current state.
type Meta struct {
	// Deploy is the opaque deployment block from the configuration.
	Deploy map[string]any `json:"deploy,omitempty"`

	// Composer is present only once the stackable has a URL.
	Composer *ComposerMeta `json:"composer,omitempty"`
}

// ComposerMeta tells the host composer how to route and rewrite URLs
// for this application.
type ComposerMeta struct {
	// TCP is always true: the application is reachable over TCP.
	TCP bool `json:"tcp"`

	// URL is the application's public URL.
	URL string `json:"url"`

	// Prefix is the mount path segment, without leading or trailing
	// slashes.
	Prefix string `json:"prefix"`

	// WantsAbsoluteURLs is always true: the application expects the
	// original absolute request paths, not prefix-stripped ones.
	WantsAbsoluteURLs bool `json:"wantsAbsoluteUrls"`
}
