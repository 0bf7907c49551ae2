package common

var (
	// PackageName identifies this module in metrics and diagnostics.
	PackageName = "github.com/waqasraz/ockam"

	// Version is set at build time via -ldflags.
	Version = "dev"
)
