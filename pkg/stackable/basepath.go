package stackable

import "strings"

// CleanBasePath normalizes a configured base path into a single
// leading-slash, no-trailing-slash segment, collapsing repeated slashes:
// "foo/" -> "/foo", "//a//b/" -> "/a/b". Empty input (or a bare "/")
// yields "", meaning no explicit base.
func CleanBasePath(p string) string {
	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return ""
	}
	return "/" + strings.Join(segments, "/")
}

// Prefix returns the composer route prefix for a base path: the cleaned
// form without leading or trailing slashes.
func Prefix(p string) string {
	return strings.TrimPrefix(CleanBasePath(p), "/")
}
