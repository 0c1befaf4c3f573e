// Package datasource locates the world artifact and tails external
// telemetry feeds.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/holycrab/minerview/internal/world"
)

const (
	// EnvWorld overrides artifact discovery.
	EnvWorld     = "MINERVIEW_WORLD"
	defaultWorld = "world/world.yaml"
)

// Discover finds the world artifact path.
// Priority: MINERVIEW_WORLD env var > world/world.yaml in CWD > walk up parents.
func Discover() (string, error) {
	if env := os.Getenv(EnvWorld); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env, nil
		}
		return "", fmt.Errorf("%s=%q: %w", EnvWorld, env, os.ErrNotExist)
	}

	// Check CWD first.
	if _, err := os.Stat(defaultWorld); err == nil {
		abs, err := filepath.Abs(defaultWorld)
		if err != nil {
			return "", fmt.Errorf("resolve absolute path for %s: %w", defaultWorld, err)
		}
		return abs, nil
	}

	// Walk up parent directories.
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, defaultWorld)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("no world artifact found (looked for %s): %w", defaultWorld, os.ErrNotExist)
}

// Open loads the world at path, discovering it when path is empty.
func Open(path string) (*world.Map, string, error) {
	if path == "" {
		var err error
		if path, err = Discover(); err != nil {
			return nil, "", err
		}
	}
	m, err := world.FileGenerator{Path: path}.Generate()
	if err != nil {
		return nil, "", err
	}
	return m, path, nil
}
