// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter"
	"github.com/omniauto/omniauto/internal/service"
	"github.com/omniauto/omniauto/pkg/platform"
)

type execFlags struct {
	paramsJSON string
	paramsFile string
	timeout    time.Duration
}

func newExecCommand(app *App) *cobra.Command {
	var flags execFlags

	execCmd := &cobra.Command{
		Use:   "exec <capability> <action> [key=value | key:=json ...]",
		Short: "Run one action",
		Long: `Run one action and print its result.

Parameters are merged in this order, later sources winning:
  --params-file   JSON, YAML or TOML object (by extension; "-" reads JSON from stdin)
  --params-json   JSON object
  key=value       string value
  key:=json       JSON value, e.g. 'args:=["-l"]' or count:=3

The command exits with status 1 when the action fails.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := app.collectParams(flags, args[2:])
			if err != nil {
				return app.reportFailure(err)
			}
			req := service.Request{Capability: action.Capability(args[0]), Action: args[1], Params: params}
			return app.runRequest(cmd.Context(), req, flags.timeout)
		},
	}

	execCmd.Flags().StringVar(&flags.paramsJSON, "params-json", "", "parameters as a JSON object")
	execCmd.Flags().StringVar(&flags.paramsFile, "params-file", "", "read parameters from a JSON, YAML or TOML file")
	execCmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "cancel the action after this long (0 means no limit)")
	return execCmd
}

func (a *App) runRequest(ctx context.Context, req service.Request, timeout time.Duration) error {
	svc, release, err := a.newService()
	if err != nil {
		return a.reportFailure(err)
	}
	defer release()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	a.logger.Debug("executing", "request", req, "platform", svc.Platform())
	res := svc.Execute(ctx, req)
	if err := a.printResult(res); err != nil {
		return err
	}
	if res.Success {
		return nil
	}
	if a.flags.verbose {
		renderIssue(a.stderr, classifyError(res.Err()))
	}
	return exitSilently(1)
}

func (a *App) collectParams(flags execFlags, assignments []string) (action.Params, error) {
	params := action.Params{}
	if flags.paramsFile != "" {
		fromFile, err := a.readParamsFile(flags.paramsFile)
		if err != nil {
			return nil, err
		}
		maps.Copy(params, fromFile)
	}
	if flags.paramsJSON != "" {
		fromJSON, err := action.DecodeParamsJSON([]byte(flags.paramsJSON))
		if err != nil {
			return nil, err
		}
		maps.Copy(params, fromJSON)
	}
	fromArgs, err := service.ParseAssignments(assignments)
	if err != nil {
		return nil, err
	}
	maps.Copy(params, fromArgs)
	return params, nil
}

func (a *App) readParamsFile(path string) (action.Params, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, action.Invalid("params-file", "%v", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var v map[string]any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, action.Invalid("params-file", "malformed YAML: %v", err)
		}
		return action.DecodeParams(v)
	case ".toml":
		var v map[string]any
		if err := toml.Unmarshal(data, &v); err != nil {
			return nil, action.Invalid("params-file", "malformed TOML: %v", err)
		}
		return action.DecodeParams(v)
	case ".json", "":
		return action.DecodeParamsJSON(data)
	default:
		return nil, action.Invalid("params-file", "unsupported extension %q (expected .json, .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

func newCapabilitiesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities [capability]",
		Short: "List actions with their parameters and risk levels",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			svc, release, err := app.newService()
			if err != nil {
				return app.reportFailure(err)
			}
			defer release()

			if len(args) == 0 {
				return app.printCatalog(svc.Catalog())
			}
			info, err := svc.Describe(action.Capability(args[0]))
			if err != nil {
				return app.reportFailure(err)
			}
			return app.printCatalog([]service.CapabilityInfo{info})
		},
	}
}

func newPlatformsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported platforms and the detected one",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return app.printPlatforms()
		},
	}
}

func (a *App) printPlatforms() error {
	format, err := a.outputFormat()
	if err != nil {
		return err
	}
	detected := platform.Detect()
	supported := adapter.SupportedPlatforms()
	if format != outputTable {
		return printStructured(a.stdout, format, map[string]any{"detected": detected, "supported": supported})
	}
	for _, id := range supported {
		marker := " "
		if id == detected {
			marker = SuccessStyle.Render("*")
		}
		fmt.Fprintf(a.stdout, "%s %s\n", marker, id)
	}
	fmt.Fprintln(a.stdout, SubtitleStyle.Render("* detected platform"))
	return nil
}
