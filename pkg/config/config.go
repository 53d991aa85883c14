// Package config defines the vitebridge configuration tree and the
// pipeline that turns raw user input into a validated Config: raw map ->
// Normalize -> decode (mapstructure) -> ApplyDefaults -> Validate.
//
// Normalization runs on the raw map before decoding so that shorthand
// forms (a bare boolean watch flag, `vite.ssr: true`) are expanded into
// their canonical object shapes exactly once, independent of the source
// (file, environment, or an embedding host runtime).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the configuration file looked up in the
	// application directory when no explicit path is given.
	ConfigFileName = "vitebridge.yaml"

	// DefaultSSREntrypoint is the entrypoint the `vite.ssr: true`
	// shorthand expands into.
	DefaultSSREntrypoint = "server.js"
)

// Config is the validated vitebridge configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (VITEBRIDGE_*)
//  2. Configuration file (vitebridge.yaml in the application directory)
//  3. Default values
type Config struct {
	// Application describes how the application is mounted by the host
	// composer.
	Application ApplicationConfig `mapstructure:"application" yaml:"application,omitempty" json:"application,omitempty"`

	// Vite configures the dev-server engine and the optional SSR mode.
	Vite ViteConfig `mapstructure:"vite" yaml:"vite,omitempty" json:"vite,omitempty"`

	// Watch controls host-side file watching. After normalization this
	// is always an object with an Enabled boolean.
	Watch WatchConfig `mapstructure:"watch" yaml:"watch,omitempty" json:"watch,omitempty"`

	// Server holds listener options passed through to the engine.
	Server ServerConfig `mapstructure:"server" yaml:"server,omitempty" json:"server,omitempty"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging,omitempty" json:"logging,omitempty"`

	// Deploy is an opaque block passed through to the host deployment
	// tooling. The adapter never interprets it.
	Deploy map[string]any `mapstructure:"deploy" yaml:"deploy,omitempty" json:"deploy,omitempty"`
}

// ApplicationConfig describes the application mount point.
type ApplicationConfig struct {
	// BasePath is the URL path segment the composer mounts this
	// application under. Accepts sloppy input ("foo/", "//a//b/"); the
	// stackable normalizes it to a single leading-slash form.
	BasePath string `mapstructure:"base_path" yaml:"base_path,omitempty" json:"base_path,omitempty"`
}

// ViteConfig configures the dev-server engine.
type ViteConfig struct {
	// ConfigFile is an optional engine config file path, resolved
	// relative to the application directory.
	ConfigFile string `mapstructure:"config_file" yaml:"config_file,omitempty" json:"config_file,omitempty"`

	// SSR selects server-rendering mode. In the raw configuration this
	// may be the boolean shorthand `true`; after normalization it is
	// either nil or a fully populated object.
	SSR *SSRConfig `mapstructure:"ssr" yaml:"ssr,omitempty" json:"ssr,omitempty"`
}

// SSRConfig describes the server-rendering entrypoint.
type SSRConfig struct {
	// Entrypoint is the application server script, relative to the
	// application directory.
	Entrypoint string `mapstructure:"entrypoint" validate:"required" yaml:"entrypoint" json:"entrypoint"`
}

// WatchConfig controls host-side file watching for SSR-mode applications.
// The dev-server engine watches its own module graph, so dev mode ignores
// this block.
type WatchConfig struct {
	// Enabled turns the host watcher on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Allow restricts watching to the given glob patterns.
	Allow []string `mapstructure:"allow" yaml:"allow,omitempty" json:"allow,omitempty"`

	// Ignore excludes the given glob patterns.
	Ignore []string `mapstructure:"ignore" yaml:"ignore,omitempty" json:"ignore,omitempty"`
}

// ServerConfig holds listener options passed through to the engine.
type ServerConfig struct {
	// Hostname to bind. Defaults to the loopback address.
	Hostname string `mapstructure:"hostname" yaml:"hostname,omitempty" json:"hostname,omitempty"`

	// Port to bind. 0 selects an ephemeral port.
	Port int `mapstructure:"port" validate:"min=0,max=65535" yaml:"port,omitempty" json:"port,omitempty"`

	// HTTPS enables TLS with the given key/cert pair.
	HTTPS *HTTPSConfig `mapstructure:"https" yaml:"https,omitempty" json:"https,omitempty"`

	// CORS enables permissive cross-origin headers on the engine.
	CORS bool `mapstructure:"cors" yaml:"cors,omitempty" json:"cors,omitempty"`
}

// HTTPSConfig holds the TLS key pair paths.
type HTTPSConfig struct {
	Key  string `mapstructure:"key" validate:"required" yaml:"key" json:"key"`
	Cert string `mapstructure:"cert" validate:"required" yaml:"cert" json:"cert"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level" json:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format" json:"format"`

	// Output is where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output" json:"output"`
}

// Load loads the configuration for the application rooted at dir.
//
// If configPath is empty, vitebridge.yaml in dir is used when present;
// a missing file yields the default configuration. VITEBRIDGE_*
// environment variables override file values and apply with or without
// a config file (see envKeys for the recognized set).
func Load(dir, configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = ""
		}
	}

	raw := map[string]any{}
	if configPath != "" {
		v := viper.New()
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		raw = v.AllSettings()
	}

	applyEnvOverrides(raw)

	return FromMap(raw)
}

// FromMap builds a validated Config from a raw configuration map. This is
// the entry point used by host runtimes that carry the configuration
// in-process rather than on disk.
func FromMap(raw map[string]any) (*Config, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	Normalize(raw)

	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &cfg,
		TagName:    "mapstructure",
		DecodeHook: durationDecodeHook(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to path in YAML form.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// durationDecodeHook converts strings like "30s" to time.Duration so the
// config file can use human-readable durations.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}
