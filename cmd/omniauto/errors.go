// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/adapter/gui"
	"github.com/omniauto/omniauto/internal/issue"
)

// issueByKind picks the guide shown for a failed action.
var issueByKind = map[action.ErrorKind]issue.Id{
	action.KindUnsupportedPlatform: issue.UnsupportedPlatformId,
	action.KindValidation:          issue.InvalidParametersId,
	action.KindUnknownAction:       issue.UnknownActionId,
	action.KindOperationFailure:    issue.OperationFailedId,
	action.KindPartialBatchFailure: issue.PartialBatchFailureId,
	action.KindPermissionDenied:    issue.PermissionDeniedId,
}

// classifyError maps err to an issue guide. ActionableErrors that name
// their own guide win.
func classifyError(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}
	if errors.Is(err, gui.ErrNoTool) {
		return issue.ToolNotFoundId
	}
	var ve *action.ValidationError
	if errors.As(err, &ve) && ve.Param == "capability" {
		return issue.UnknownCapabilityId
	}
	return issueByKind[action.KindOf(err)]
}

// renderIssue writes the guide for id to w. Rendering failures are ignored.
func renderIssue(w io.Writer, id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	if rendered, err := entry.Render("dark"); err == nil {
		fmt.Fprint(w, rendered)
	}
}

// reportFailure prints err with its guide and returns the exit error that
// stops the command without printing it again.
func (a *App) reportFailure(err error) error {
	if a.flags.verbose {
		renderIssue(a.stderr, classifyError(err))
	}
	fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.flags.verbose))
	return exitSilently(1)
}
