// SPDX-License-Identifier: MPL-2.0

package mcpapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/omniauto/omniauto/internal/action"
)

type (
	inputSchema struct {
		Type       string              `json:"type"`
		Properties map[string]property `json:"properties"`
		Required   []string            `json:"required,omitempty"`
	}

	property struct {
		Type        string `json:"type,omitempty"`
		Description string `json:"description,omitempty"`
	}
)

// jsonTypes maps parameter types to JSON Schema types. ParamAny has no entry
// and yields an untyped property.
var jsonTypes = map[action.ParamType]string{
	action.ParamString:  "string",
	action.ParamInteger: "integer",
	action.ParamNumber:  "number",
	action.ParamBoolean: "boolean",
	action.ParamArray:   "array",
	action.ParamObject:  "object",
}

// actionTool describes one action as a tool. Aliases are listed in the
// description only; the schema uses canonical names.
func actionTool(c action.Capability, spec action.Spec) mcp.Tool {
	schema := inputSchema{Type: "object", Properties: make(map[string]property, len(spec.Params))}
	for _, p := range spec.Params {
		desc := p.Description
		if len(p.Aliases) > 0 {
			desc = strings.TrimSpace(fmt.Sprintf("%s (aliases: %s)", desc, strings.Join(p.Aliases, ", ")))
		}
		schema.Properties[p.Name] = property{Type: jsonTypes[p.Type], Description: desc}
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	raw, _ := json.Marshal(schema)

	desc := fmt.Sprintf("%s [%s risk]", spec.Description, spec.Risk)
	return mcp.NewToolWithRawSchema(ToolName(c, spec.Name), desc, raw)
}
