package version

var (
	// Version is the main version at the moment.
	// Embedded by --ldflags on build time
	// Versioning should follow the SemVer guidelines
	// https://semver.org/
	Version = "v0.1.0"

	// Branch is the git branch the binary was built from, set by --ldflags
	Branch string

	// Commit is the git commit hash the binary was built from, set by --ldflags
	Commit string

	// BuildTime is the time the binary was built at, set by --ldflags
	BuildTime string
)
