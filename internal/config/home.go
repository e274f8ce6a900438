package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv names the environment variable that overrides the home directory.
const HomeEnv = "PATHTRIE_HOME"

// homeDirName is the home directory created under the user's home.
const homeDirName = ".pathtrie"

// GetHome returns the pathtrie home directory, which holds the config file,
// the index, logs and run history.
// Priority order:
//  1. PATHTRIE_HOME environment variable (if set)
//  2. ~/.pathtrie
//  3. .pathtrie in the current working directory (no user home available)
//
// The directory is created if it doesn't exist.
func GetHome() (string, error) {
	base, err := os.UserHomeDir()
	if err != nil {
		if base, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
	}
	return GetHomeWithBase(base)
}

// GetHomeWithBase is GetHome with an explicit fallback base directory.
func GetHomeWithBase(base string) (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		home = filepath.Join(base, homeDirName)
	}
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create pathtrie home directory: %w", err)
	}
	return home, nil
}
