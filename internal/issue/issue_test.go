// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func allIds() []Id {
	return []Id{
		ConfigLoadFailedId,
		UnsupportedPlatformId,
		UnknownCapabilityId,
		UnknownActionId,
		InvalidParametersId,
		PermissionDeniedId,
		ToolNotFoundId,
		OperationFailedId,
		PartialBatchFailureId,
		ServerStartFailedId,
	}
}

func TestId_Constants(t *testing.T) {
	seen := make(map[Id]bool)
	for _, id := range allIds() {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if ConfigLoadFailedId != 1 {
		t.Errorf("ConfigLoadFailedId = %d, want 1", ConfigLoadFailedId)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		contains string
	}{
		{ConfigLoadFailedId, "Failed to load configuration"},
		{UnsupportedPlatformId, "Platform not supported"},
		{UnknownCapabilityId, "Unknown capability"},
		{UnknownActionId, "Unknown action"},
		{InvalidParametersId, "Invalid parameters"},
		{PermissionDeniedId, "Permission denied"},
		{ToolNotFoundId, "Required tool not found"},
		{OperationFailedId, "Operation failed"},
		{PartialBatchFailureId, "Batch partially failed"},
		{ServerStartFailedId, "Failed to start the server"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			issue := Get(tt.id)
			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if issue.Id() != tt.id {
				t.Errorf("Id() = %d, want %d", issue.Id(), tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
				t.Errorf("MarkdownMsg() should contain %q", tt.contains)
			}
		})
	}

	if Get(Id(9999)) != nil {
		t.Error("Get(9999) should return nil")
	}
}

func TestValues(t *testing.T) {
	values := Values()
	if len(values) != len(allIds()) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(allIds()))
	}
	for i, issue := range values {
		if issue.Id() != allIds()[i] {
			t.Errorf("Values()[%d].Id() = %d, want %d (ordered by Id)", i, issue.Id(), allIds()[i])
		}
	}
}

func TestIssue_LinksAreClones(t *testing.T) {
	issue := &Issue{id: OperationFailedId, docLinks: []HttpLink{"https://example.com/docs"}}

	links := issue.DocLinks()
	links[0] = "modified"
	if issue.DocLinks()[0] != "https://example.com/docs" {
		t.Error("DocLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	rendered, err := Get(UnknownActionId).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "omniauto capabilities") {
		t.Error("Render() output should contain the suggested command")
	}
	if strings.Contains(rendered, "See also") {
		t.Error("issues without links should not render a See also section")
	}

	withLinks := &Issue{
		id:       OperationFailedId,
		mdMsg:    "# Title",
		docLinks: []HttpLink{"https://example.com/docs"},
		extLinks: []HttpLink{"https://example.com/ext"},
	}
	rendered, err = withLinks.Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	for _, want := range []string{"See also", "https://example.com/docs", "https://example.com/ext"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Render() output should contain %q", want)
		}
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	for _, issue := range Values() {
		out, err := issue.Render("dark")
		if err != nil {
			t.Errorf("issue %d failed to render: %v", issue.Id(), err)
			continue
		}
		if strings.TrimSpace(out) == "" {
			t.Errorf("issue %d rendered empty output", issue.Id())
		}
	}
}
