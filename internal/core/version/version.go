// Package version reports build information stamped via -ldflags
package version

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Set with:
//
//	-ldflags "-X 'dlguard/internal/core/version.version=v0.1.0' -X 'dlguard/internal/core/version.commit=abcd'"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information
func Info() BuildInfo {
	return BuildInfo{
		Service: "dlguard",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// UserAgent is the User-Agent dlguard sends on outbound requests
func UserAgent() string { return "dlguard/" + version }
