package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const UserConfigName = "config.yml"

// EnsureUserConfig returns the path of the config file in dataDir. A
// missing file is seeded from templatePath (or the built-in defaults when
// templatePath does not exist) with app.data_dir pointing at dataDir.
func EnsureUserConfig(dataDir, templatePath string) (string, error) {
	userPath := filepath.Join(dataDir, UserConfigName)

	switch _, err := os.Stat(userPath); {
	case err == nil:
		return userPath, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", err
	}

	cfg := Default()
	if templatePath != "" {
		seeded, err := Load(templatePath)
		switch {
		case err == nil:
			cfg = seeded
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("read template %s: %w", templatePath, err)
		}
	}
	cfg.App.DataDir = dataDir

	if err := SaveAtomic(userPath, cfg); err != nil {
		return "", err
	}
	return userPath, nil
}
