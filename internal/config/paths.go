package config

import (
	"path/filepath"

	"github.com/jasmine-go/jasmine/pkg/types"
)

// DefaultSpecDir is the spec directory relative to the project root.
const DefaultSpecDir = types.DefaultSpecDir

// DefaultFile returns the default config file location for a project.
func DefaultFile(projectRoot string) string {
	return filepath.Join(projectRoot, types.DefaultConfigFile)
}

// ResolveDir joins a configured directory with the project root. An empty
// dir falls back to fallback (itself relative to the root); absolute dirs are
// returned unchanged.
func ResolveDir(projectRoot, dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(projectRoot, dir)
}
