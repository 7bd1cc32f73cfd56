// Package negotiatego provides the version information for negotiate-go.
package negotiatego

// Version is the current version of negotiate-go.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
