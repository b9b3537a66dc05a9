package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"joetracker-engine/internal/config"
	"joetracker-engine/internal/store"
)

const defaultConfigPath = "config/config.yml"

// dataDir is the --data-dir flag or JOETRACKER_DATA_DIR, else the default.
func (a *app) dataDir() string {
	if d := a.v.GetString(config.KeyDataDir); d != "" {
		return d
	}
	return config.Default().App.DataDir
}

// configPath returns --config, or the bootstrapped file in the data dir.
func (a *app) configPath() (string, error) {
	if a.cfgFile != "" {
		return a.cfgFile, nil
	}
	return config.EnsureUserConfig(a.dataDir(), defaultConfigPath)
}

// loadConfig reads the config file and applies flag and env overrides.
// Validation errors are fatal; warnings are logged.
func (a *app) loadConfig() (config.Config, string, error) {
	path, err := a.configPath()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("config bootstrap failed: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, path, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if a.cfgFile == "" {
		cfg.App.DataDir = a.dataDir()
	}
	config.OverlayEnv(&cfg, a.v)

	cfg, vr := config.NormalizeAndValidate(cfg)
	for _, w := range vr.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !vr.OK() {
		return cfg, path, fmt.Errorf("invalid config %s: %v", path, vr.Errors)
	}
	return cfg, path, nil
}

// openStore creates the data dir and opens the migrated database.
func openStore(cfg config.Config) (*store.DB, error) {
	if err := os.MkdirAll(filepath.Clean(cfg.App.DataDir), 0o755); err != nil {
		return nil, err
	}
	db, err := store.OpenMigrated(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	log.Printf("[db] path=%s", cfg.DBPath())
	return db, nil
}
