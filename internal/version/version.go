package version

// Version is the engine version stamped into every backtest result.
// Set at build time with:
// -ldflags "-X github.com/rxtech-lab/argo-macd/internal/version.Version=1.2.3"
// The value "main" marks a development build.
var Version = "v0.3.0"

// GetVersion returns the current engine version.
func GetVersion() string {
	return Version
}
