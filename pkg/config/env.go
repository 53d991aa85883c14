package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix for configuration environment variables.
const EnvPrefix = "VITEBRIDGE"

// envKeys maps the recognized environment variable suffixes to their
// configuration paths. Only listed keys are consulted: the VITEBRIDGE_
// namespace is shared with the runtime globals injected into managed
// application processes (APP_ROOT, INSTANCE_ID, ...), which must never
// leak into configuration.
var envKeys = map[string]string{
	"APPLICATION_BASE_PATH": "application.base_path",
	"VITE_CONFIG_FILE":      "vite.config_file",
	"VITE_SSR":              "vite.ssr",
	"VITE_SSR_ENTRYPOINT":   "vite.ssr.entrypoint",
	"WATCH":                 "watch",
	"WATCH_ENABLED":         "watch.enabled",
	"SERVER_HOSTNAME":       "server.hostname",
	"SERVER_PORT":           "server.port",
	"SERVER_CORS":           "server.cors",
	"SERVER_HTTPS_KEY":      "server.https.key",
	"SERVER_HTTPS_CERT":     "server.https.cert",
	"LOGGING_LEVEL":         "logging.level",
	"LOGGING_FORMAT":        "logging.format",
	"LOGGING_OUTPUT":        "logging.output",
}

// applyEnvOverrides overlays VITEBRIDGE_* environment variables onto the
// raw configuration map, before normalization. Environment values take
// precedence over file values.
func applyEnvOverrides(raw map[string]any) {
	// Shorter paths first, so VITE_SSR=true composes with
	// VITE_SSR_ENTRYPOINT instead of clobbering it.
	paths := make([]string, 0, len(envKeys))
	byPath := make(map[string]string, len(envKeys))
	for suffix, path := range envKeys {
		if v, ok := os.LookupEnv(EnvPrefix + "_" + suffix); ok {
			paths = append(paths, path)
			byPath[path] = v
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		setPath(raw, path, parseEnvValue(byPath[path]))
	}
}

// setPath sets a dotted path in a nested map, creating (or replacing
// non-map) intermediate nodes as needed.
func setPath(raw map[string]any, path string, value any) {
	keys := strings.Split(path, ".")
	node := raw
	for _, k := range keys[:len(keys)-1] {
		child, ok := node[k].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[k] = child
		}
		node = child
	}
	node[keys[len(keys)-1]] = value
}

// parseEnvValue interprets an environment string as the narrowest type
// the decoder expects: bool, then int, then string.
func parseEnvValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}
