// Package version reports the build version of the running binary.
package version

// BuildInfo holds version information about the binary.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information for service. version, commit and date are set at build time:
// -ldflags "-X 'helix/internal/core/version.version=v0.1.0' -X 'helix/internal/core/version.commit=abcd'"
func Info(service string) BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
