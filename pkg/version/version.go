package version

// Set at build time with -ldflags "-X github.com/guimove/powerfit/pkg/version.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)
