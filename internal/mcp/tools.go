package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a callable tool
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Projects
		{
			Name:        "get_project",
			Description: "Get a startable project by exact file name, creating and initializing it when it does not exist",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "Project file name (case-sensitive)",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "create_project",
			Description: "Create a project, initialize its map and stakeholders in an editor slot, and save it",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "Project file name",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "delete_project",
			Description: "Delete a project from the platform",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "Project file name",
					},
				},
				"required": []string{"name"},
			},
		},

		// Sessions
		{
			Name:        "list_sessions",
			Description: "List the sessions that can currently be joined",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "join_session",
			Description: "Join a running session as a viewer and return its tokens",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"slot_id": map[string]any{
						"type":        "integer",
						"description": "Slot the session runs in",
					},
					"name": map[string]any{
						"type":        "string",
						"description": "Session name, kept on the returned session",
					},
				},
				"required": []string{"slot_id"},
			},
		},
		{
			Name:        "create_or_join_session",
			Description: "Find the joinable session named after a map; returns an empty session when none is running",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"map_name": map[string]any{
						"type":        "string",
						"description": "Map (session) name, matched exactly",
					},
				},
				"required": []string{"map_name"},
			},
		},
		{
			Name:        "create_session",
			Description: "Start a multi-player session on a map. The platform does not report the new slot, so -1 is returned",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"map_name": map[string]any{
						"type":        "string",
						"description": "Map to start",
					},
				},
				"required": []string{"map_name"},
			},
		},
		{
			Name:        "kill_session",
			Description: "Stop the session running in a slot",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"slot_id": map[string]any{
						"type":        "integer",
						"description": "Slot to stop",
					},
				},
				"required": []string{"slot_id"},
			},
		},

		// Activity
		{
			Name:        "get_recent_activity",
			Description: "Get recent lifecycle operations performed through this connector",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"subject": map[string]any{
						"type":        "string",
						"description": "Project or session name to filter by",
					},
					"slot_id": map[string]any{
						"type":        "integer",
						"description": "Slot to filter by",
					},
					"type": map[string]any{
						"type":        "string",
						"description": "Activity type to filter by",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of activity entries",
					},
					"offset": map[string]any{
						"type":        "integer",
						"description": "Number of entries to skip",
					},
				},
			},
		},
	}
}

func registerTools(server *sdkmcp.Server, handler *Handler) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, name, args)
			return toolResult(result, err), nil
		})
	}
}

// toolResult renders a handler outcome. Failures are reported in-band so the
// caller can read the error code and recovery hint.
func toolResult(result any, err error) *sdkmcp.CallToolResult {
	if err != nil {
		apiErr := MapError(err)
		if apiErr == nil {
			apiErr = &APIError{Code: "INTERNAL", Message: err.Error()}
		}
		return &sdkmcp.CallToolResult{
			IsError: true,
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: formatPayload(apiErr)}},
		}
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: formatPayload(result)}},
	}
}
