package stackable

import "fmt"

// UnsupportedVersionError reports an installed dev-server engine outside
// the supported version range. It is fatal, surfaced during Init, and
// never retried.
type UnsupportedVersionError struct {
	// Package is the engine package name.
	Package string

	// Installed is the version found in the application's dependencies.
	Installed string

	// Required is the supported semantic-version range.
	Required string
}

// Error implements the error interface.
func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s@%s does not satisfy the supported range %s", e.Package, e.Installed, e.Required)
}
