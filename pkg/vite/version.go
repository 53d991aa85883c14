package vite

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// PackageName is the engine's npm package name.
	PackageName = "vite"

	// SupportedRange is the semantic-version range of engine releases
	// this adapter can drive.
	SupportedRange = "^5.0.0"
)

// ErrNotInstalled indicates no engine installation was found under the
// application root.
var ErrNotInstalled = errors.New("vite: package not installed")

// InstalledVersion resolves the installed engine package relative to dir
// and returns its declared version. Resolution walks up the directory
// tree the way node's module resolution does, so workspaces with a
// hoisted node_modules are found.
func InstalledVersion(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("vite: resolve %s: %w", dir, err)
	}

	for {
		manifest := filepath.Join(abs, "node_modules", PackageName, "package.json")
		data, err := os.ReadFile(manifest)
		if err == nil {
			var pkg struct {
				Version string `json:"version"`
			}
			if err := json.Unmarshal(data, &pkg); err != nil {
				return "", fmt.Errorf("vite: parse %s: %w", manifest, err)
			}
			if pkg.Version == "" {
				return "", fmt.Errorf("vite: %s declares no version", manifest)
			}
			return pkg.Version, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("vite: read %s: %w", manifest, err)
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("%w under %s", ErrNotInstalled, dir)
		}
		abs = parent
	}
}
