// Package manifest handles fennec.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a fennec.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	VM      VMConfig    `toml:"vm"`
	Cache   CacheConfig `toml:"cache"`

	// Dir is the directory containing the fennec.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// VMConfig tunes the VM core.
type VMConfig struct {
	// NativeSegments enables native segment extraction.
	NativeSegments bool `toml:"native-segments"`
	// MinSegmentSteps is the minimum profitable segment length; zero keeps
	// the built-in default.
	MinSegmentSteps int `toml:"min-segment-steps"`
	// Diagnostics enables human-readable messages on resume failure paths.
	Diagnostics bool `toml:"diagnostics"`
}

// CacheConfig configures the on-disk chunk cache.
type CacheConfig struct {
	// Path is the cache database location, relative to the manifest
	// directory unless absolute. Empty disables the cache.
	Path string `toml:"path"`
}

// Default returns the configuration used when no fennec.toml is present.
func Default() *Manifest {
	return &Manifest{
		VM: VMConfig{NativeSegments: true},
	}
}

// Load parses a fennec.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "fennec.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	m.Dir = dir

	if m.VM.MinSegmentSteps < 0 {
		return nil, fmt.Errorf("invalid min-segment-steps %d in %s", m.VM.MinSegmentSteps, path)
	}
	return &m, nil
}

// CachePath resolves the cache database path against the manifest directory.
// It returns "" when the cache is disabled.
func (m *Manifest) CachePath() string {
	if m.Cache.Path == "" {
		return ""
	}
	if filepath.IsAbs(m.Cache.Path) {
		return m.Cache.Path
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}
