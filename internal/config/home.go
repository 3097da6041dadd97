package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetHome returns the snsindex home directory
// Priority order:
//  1. SNSINDEX_HOME environment variable (if set)
//  2. .snsindex under the current working directory (fallback)
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	if home := os.Getenv("SNSINDEX_HOME"); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("create snsindex home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	home := filepath.Join(cwd, ".snsindex")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create snsindex home directory: %w", err)
	}

	return home, nil
}

// ResolvePath anchors a relative path at the snsindex home directory.
// Absolute paths and the SQLite ":memory:" name are returned unchanged.
func ResolvePath(path string) (string, error) {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path, nil
	}

	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path), nil
}
