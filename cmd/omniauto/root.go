// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/omniauto/omniauto/internal/issue"
)

// configOptional marks commands that run with defaults when the
// configuration cannot be loaded.
const configOptional = "config-optional"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "omniauto",
		Short: "Cross-platform desktop and host automation",
		Long: TitleStyle.Render("omniauto") + SubtitleStyle.Render(" - Cross-platform desktop and host automation") + `

omniauto runs filesystem, process, GUI input, system and network actions
through one adapter per operating system (windows, linux, darwin). Every
action returns the same result shape whichever platform served it.

` + SubtitleStyle.Render("Examples:") + `
  omniauto capabilities                       List every action
  omniauto exec filesystem create_folder name=reports
  omniauto exec filesystem create_folders_batch start_name=p1 end_name=p10
  omniauto exec process run command=ls 'args:=["-la"]'
  omniauto serve http --addr 127.0.0.1:8765   Serve actions over HTTP`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, optional := cmd.Annotations[configOptional]
			return app.loadConfig(cmd.Context(), optional)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			app.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output and debug logging")
	flags.StringVar(&app.flags.configPath, "config", "", "config file (default is <config dir>/omniauto/config.cue)")
	flags.StringVar(&app.flags.platform, "platform", "", "adapter platform to use instead of the detected one (windows, linux, darwin)")
	flags.StringVarP(&app.flags.output, "output", "o", string(outputTable), "output format: table, json or yaml")

	rootCmd.AddCommand(
		newExecCommand(app),
		newCapabilitiesCommand(app),
		newPlatformsCommand(app),
		newConfigCommand(app),
		newServeCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with its status.
func Execute() {
	app := NewApp(Dependencies{})
	defer app.close()

	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their own layout; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
