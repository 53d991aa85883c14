package config

import "strings"

const (
	// DefaultHostname is the loopback address the engine binds when no
	// hostname is configured.
	DefaultHostname = "127.0.0.1"
)

// Default returns the default configuration: dev-server mode, watch
// disabled, ephemeral loopback listener.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Hostname == "" {
		cfg.Hostname = DefaultHostname
	}
	// Port 0 is the default: the engine picks an ephemeral port.
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}
