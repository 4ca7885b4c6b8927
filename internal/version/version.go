package version

// Set at build time with -ldflags "-X github.com/fbz-tec/storexport/internal/version.AppVersion=..."
var (
	AppVersion = "dev"
	BuildTime  = "unknown"
	GitCommit  = "none"
)
