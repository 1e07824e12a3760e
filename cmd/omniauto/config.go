// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/omniauto/omniauto/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize the configuration",
		Long: `Inspect and initialize the configuration.

The configuration is a CUE file read from the config directory, or from the
file given with --config. OMNIAUTO_* environment variables override it.`,
	}

	configCmd.AddCommand(
		newConfigShowCommand(app),
		newConfigPathCommand(app),
		newConfigInitCommand(app),
	)
	return configCmd
}

func newConfigShowCommand(app *App) *cobra.Command {
	var defaults bool

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration.

The table output is CUE that can be saved as a config file. --defaults prints
the built-in defaults instead of the loaded configuration.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{configOptional: ""},
		RunE: func(*cobra.Command, []string) error {
			cfg := app.config()
			if defaults {
				cfg = config.DefaultConfig()
			}
			format, err := app.outputFormat()
			if err != nil {
				return app.reportFailure(err)
			}
			if format != outputTable {
				return printStructured(app.stdout, format, cfg)
			}
			_, err = fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return err
		},
	}
	showCmd.Flags().BoolVar(&defaults, "defaults", false, "print the built-in defaults")
	return showCmd
}

func newConfigPathCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the config file location",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{configOptional: ""},
		RunE: func(*cobra.Command, []string) error {
			path, loaded, err := app.configFilePath()
			if err != nil {
				return app.reportFailure(err)
			}
			if !loaded && app.outputIsTable() {
				fmt.Fprintln(app.stdout, path+SubtitleStyle.Render(" (not present, defaults in use)"))
				return nil
			}
			return app.printValue(map[string]any{"path": path, "loaded": loaded}, path)
		},
	}
}

func newConfigInitCommand(app *App) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default config file",
		Long:        "Write the default config file to the config directory, or to the --config path. An existing file is kept unless --force is given.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{configOptional: ""},
		RunE: func(*cobra.Command, []string) error {
			path, err := app.initConfig(force)
			if err != nil {
				return app.reportFailure(err)
			}
			fmt.Fprintln(app.stdout, SuccessStyle.Render("✓ ")+"config written to "+CmdStyle.Render(path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return initCmd
}

// configFilePath returns the config file in use and whether it was loaded.
func (a *App) configFilePath() (string, bool, error) {
	if a.cfgPath != "" {
		return a.cfgPath, true, nil
	}
	if a.flags.configPath != "" {
		return a.flags.configPath, false, nil
	}
	path, err := config.ConfigFilePath()
	return path, false, err
}

func (a *App) initConfig(force bool) (string, error) {
	if a.flags.configPath == "" && !force {
		return config.CreateDefaultConfig()
	}

	path, _, err := a.configFilePath()
	if err != nil {
		return "", err
	}
	if a.flags.configPath != "" {
		path = a.flags.configPath
	}
	if _, err := os.Stat(path); err == nil && !force {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.GenerateCUE(config.DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

func (a *App) outputIsTable() bool {
	format, err := a.outputFormat()
	return err == nil && format == outputTable
}

// printValue prints v in the structured formats and text as the table form.
func (a *App) printValue(v any, text string) error {
	format, err := a.outputFormat()
	if err != nil {
		return a.reportFailure(err)
	}
	if format != outputTable {
		return printStructured(a.stdout, format, v)
	}
	_, err = fmt.Fprintln(a.stdout, text)
	return err
}
