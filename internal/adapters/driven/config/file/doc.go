// Package file implements the ConfigStore port over a TOML file in the
// lexindex config directory.
package file
