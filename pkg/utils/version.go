// Package utils holds small one-off helpers shared across dumsor commands.
package utils

// Populated at build time via -ldflags (see .dagger/build.go); the zero
// values identify a local development build.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
