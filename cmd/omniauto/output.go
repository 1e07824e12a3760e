// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/service"
)

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
)

type (
	// outputFormat selects how results and catalogs are printed.
	outputFormat string

	// InvalidOutputFormatError reports an unknown --output value.
	InvalidOutputFormatError struct {
		Value string
	}
)

func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (expected table, json or yaml)", e.Value)
}

// Unwrap returns action.ErrValidation so the CLI reports it like any other
// invalid parameter.
func (e *InvalidOutputFormatError) Unwrap() error { return action.ErrValidation }

func (a *App) outputFormat() (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(a.flags.output)); f {
	case outputTable, outputJSON, outputYAML:
		return f, nil
	default:
		return "", &InvalidOutputFormatError{Value: a.flags.output}
	}
}

// printStructured writes v as JSON or YAML. YAML goes through JSON first so
// custom JSON marshalers and json tags shape both formats alike.
func printStructured(w io.Writer, format outputFormat, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if format == outputJSON {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func (a *App) printResult(res *action.Result) error {
	format, err := a.outputFormat()
	if err != nil {
		return err
	}
	if format != outputTable {
		return printStructured(a.stdout, format, res)
	}

	label := fmt.Sprintf("%s.%s", res.Capability, res.Action)
	if res.Success {
		fmt.Fprintf(a.stdout, "%s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(label))
	} else {
		fmt.Fprintf(a.stdout, "%s %s %s\n", ErrorStyle.Render("✗"), CmdStyle.Render(label), WarningStyle.Render(string(res.Kind)))
	}

	fields := res.Map()
	delete(fields, "capability")
	delete(fields, "action")
	delete(fields, "success")

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := newTable(a.stdout)
	t.AppendHeader(table.Row{"FIELD", "VALUE"})
	for _, k := range keys {
		t.AppendRow(table.Row{k, cell(fields[k])})
	}
	t.Render()
	return nil
}

func (a *App) printCatalog(infos []service.CapabilityInfo) error {
	format, err := a.outputFormat()
	if err != nil {
		return err
	}
	if format != outputTable {
		return printStructured(a.stdout, format, infos)
	}

	t := newTable(a.stdout)
	t.AppendHeader(table.Row{"CAPABILITY", "ACTION", "RISK", "PARAMS", "DESCRIPTION"})
	for _, info := range infos {
		for _, spec := range info.Actions {
			risk := string(spec.Risk)
			if style, ok := riskStyles[risk]; ok {
				risk = style.Render(risk)
			}
			t.AppendRow(table.Row{info.Capability, spec.Name, risk, paramSummary(spec.Params), spec.Description})
		}
		t.AppendSeparator()
	}
	t.Render()
	fmt.Fprintln(a.stdout, SubtitleStyle.Render("* required parameter"))
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	return t
}

// paramSummary lists parameter names, starring the required ones.
func paramSummary(params []action.ParamSpec) string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		name := p.Name
		if p.Required {
			name += "*"
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

// cell renders a payload value for a table. Scalars print as-is; lists and
// objects print as compact JSON.
func cell(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64, bool:
		return fmt.Sprint(typed)
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(data)
	}
}
