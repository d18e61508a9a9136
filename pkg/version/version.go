package version

// Set at build time with -ldflags "-X minic/pkg/version.Version=...".
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)
