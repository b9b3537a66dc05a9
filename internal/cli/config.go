package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"joetracker-engine/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage joetracker configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := a.loadConfig()
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("error marshaling config: %w", err)
			}
			fmt.Fprintf(a.out, "# %s\n%s", path, b)
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgFile
			if path == "" {
				path = filepath.Join(a.dataDir(), config.UserConfigName)
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("error creating config directory: %w", err)
			}

			cfg := config.Default()
			cfg.App.DataDir = a.dataDir()
			if err := config.SaveAtomic(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created default configuration: %s\n", path)
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configPath()
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			config.OverlayEnv(&cfg, a.v)

			_, vr := config.NormalizeAndValidate(cfg)
			for _, w := range vr.Warnings {
				fmt.Fprintf(a.out, "warning: %s\n", w)
			}
			for _, e := range vr.Errors {
				fmt.Fprintf(a.out, "error: %s\n", e)
			}
			if !vr.OK() {
				return fmt.Errorf("%s: %d error(s)", path, len(vr.Errors))
			}
			fmt.Fprintf(a.out, "%s: ok\n", path)
			return nil
		},
	}

	cmd.AddCommand(show, initCmd, validate)
	return cmd
}
