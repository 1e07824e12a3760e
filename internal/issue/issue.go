// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	UnsupportedPlatformId
	UnknownCapabilityId
	UnknownActionId
	InvalidParametersId
	PermissionDeniedId
	ToolNotFoundId
	OperationFailedId
	PartialBatchFailureId
	ServerStartFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "](" + string(link) + ")\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or did not match the schema.

## Things you can try:
- Print the effective defaults:
~~~
$ omniauto config show --defaults
~~~
- Print where the configuration is read from:
~~~
$ omniauto config path
~~~
- Check for stray OMNIAUTO_* environment variables`,
	}

	unsupportedPlatformIssue = &Issue{
		id: UnsupportedPlatformId,
		mdMsg: `
# Platform not supported!

Adapters exist for **windows**, **linux** and **darwin** only.

## Things you can try:
- List the supported platforms:
~~~
$ omniauto platforms
~~~
- Pass one explicitly with ` + "`--platform`" + ``,
	}

	unknownCapabilityIssue = &Issue{
		id: UnknownCapabilityId,
		mdMsg: `
# Unknown capability!

Every request names one of the five capabilities:
**filesystem**, **process**, **gui**, **system**, **network**.

## Things you can try:
~~~
$ omniauto capabilities
~~~`,
	}

	unknownActionIssue = &Issue{
		id: UnknownActionId,
		mdMsg: `
# Unknown action!

The module does not implement the requested action. Nothing was executed.

## Things you can try:
- List the actions a capability supports:
~~~
$ omniauto capabilities filesystem
~~~`,
	}

	invalidParametersIssue = &Issue{
		id: InvalidParametersId,
		mdMsg: `
# Invalid parameters!

A required parameter was missing or a value had the wrong shape.
Parameters are validated before anything touches the host.

## Things you can try:
- Pass parameters as ` + "`key=value`" + ` pairs, ` + "`--params-json`" + ` or ` + "`--params-file`" + `
- Check the parameter names with ` + "`omniauto capabilities <capability>`" + ``,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

The action is disabled by configuration, above the configured ` + "`max_risk`" + `,
or refused by the operating system.

## Things you can try:
- Raise ` + "`max_risk`" + ` in your config file, or with OMNIAUTO_MAX_RISK
- Power actions require ` + "`system.allow_power_actions: true`" + `
- GUI input on macOS requires Accessibility permission for the terminal
- Check file and process ownership`,
	}

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# Required tool not found!

Some actions delegate to platform tools that are not installed by default.

## Tools per platform:
- **linux**: xdotool, scrot or ImageMagick, pactl or amixer, systemctl
- **darwin**: cliclick, osascript, screencapture
- **windows**: powershell, nircmd (volume)`,
	}

	operationFailedIssue = &Issue{
		id: OperationFailedId,
		mdMsg: `
# Operation failed!

The action was valid but the host refused or failed it.
The error message carries the underlying cause.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` for the full error chain
- Check the log file if ` + "`log.file`" + ` is configured`,
	}

	partialBatchFailureIssue = &Issue{
		id: PartialBatchFailureId,
		mdMsg: `
# Batch partially failed!

Some items of the batch were created before an error stopped it.
The ones already created are **not** rolled back.

## Things you can try:
- Inspect ` + "`created`" + ` and ` + "`failed`" + ` in the result
- Re-run with a range that starts after the last created item`,
	}

	serverStartFailedIssue = &Issue{
		id: ServerStartFailedId,
		mdMsg: `
# Failed to start the server!

The listener could not be bound or its host key could not be loaded.

## Things you can try:
- Pick another address with ` + "`--addr`" + `
- Check that ` + "`server.ssh.host_key_path`" + ` is writable`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		unsupportedPlatformIssue.Id(): unsupportedPlatformIssue,
		unknownCapabilityIssue.Id():   unknownCapabilityIssue,
		unknownActionIssue.Id():       unknownActionIssue,
		invalidParametersIssue.Id():   invalidParametersIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
		toolNotFoundIssue.Id():        toolNotFoundIssue,
		operationFailedIssue.Id():     operationFailedIssue,
		partialBatchFailureIssue.Id(): partialBatchFailureIssue,
		serverStartFailedIssue.Id():   serverStartFailedIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
