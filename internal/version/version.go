package version

// Version contains the application version information.
// Set via ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/sitesync/internal/version.Version=v1.0.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// UserAgent returns the default User-Agent sent to remote hosts.
func UserAgent() string {
	if Version == "" || Version == "unknown" {
		return "sitesync/dev"
	}
	return "sitesync/" + Version
}
