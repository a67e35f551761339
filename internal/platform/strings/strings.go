// Package strings provides small string and slice helpers
package strings

import std "strings"

// IfEmpty returns def if in is empty, otherwise returns in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// Blank reports whether s has no non-whitespace content
func Blank(s string) bool { return std.TrimSpace(s) == "" }

// FirstNonBlank returns the first argument with non-whitespace content, or ""
func FirstNonBlank(vals ...string) string {
	for _, v := range vals {
		if !Blank(v) {
			return v
		}
	}
	return ""
}

// MustPrefix normalizes a mount path like /api/v1 to a single leading slash
// and no trailing slash. Panics when nothing is left
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// EnsureSlashes wraps p in leading and trailing slashes, "/" for blank input
func EnsureSlashes(p string) string {
	p = std.Trim(std.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}
