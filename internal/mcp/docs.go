package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `tygron-connector manages projects and sessions on a Tygron platform server.

Core concepts:
- Project: a simulation scenario stored on the platform, identified by its exact file name.
- Slot: a running server instance hosting one session of a project.
- Session: a running slot that clients join. Joining as a viewer returns a client token and a server token.
- Editor slot: a slot opened in EDITOR mode to configure a new project before it is saved.

Default workflow:
1) Projects: call get_project(name). It returns an existing project, or creates one
   (500 m map, one playable civilian stakeholder) when the name is unknown.
2) Sessions: call list_sessions, then join_session(slot_id) to obtain tokens.
   create_or_join_session(map_name) returns the running session for a map, or an empty one.
3) create_session(map_name) starts a multi-player session; its slot is not reported (-1),
   so list_sessions afterwards to find it.
4) get_recent_activity shows what this connector has done.

Docs:
- tygron://docs/index
- tygron://docs/project-creation
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "tygron://docs/index",
		Name:        "docs_index",
		Title:       "tygron-connector docs index",
		Description: "Entry point: tools, error codes, and known limitations.",
		Content: `# tygron-connector

## Tools

- ` + "`get_project`" + `, ` + "`create_project`" + `, ` + "`delete_project`" + `
- ` + "`list_sessions`" + `, ` + "`join_session`" + `, ` + "`create_or_join_session`" + `, ` + "`create_session`" + `, ` + "`kill_session`" + `
- ` + "`get_recent_activity`" + `

## Error codes

- INVALID_INPUT: missing or malformed arguments.
- PROJECT_NOT_FOUND: the platform listed the project but returned no data for it.
- INIT_FAILED, INIT_TIMEOUT, SAVE_FAILED: project creation did not complete.
- EDIT_SESSION_FAILED: the editor slot could not be joined or connected.
- DELETE_FAILED: the platform refused to delete the project.
- NO_REPLY, REJECTED: a session call returned nothing usable, or reported failure.
- PLATFORM_ERROR: the platform answered with a non-2xx status.

## Limitations

- Project names are matched exactly and case-sensitively.
- create_session cannot report the new slot id.
- The session list is a snapshot; it is not refreshed in the background.
`,
	},
	{
		URI:         "tygron://docs/project-creation",
		Name:        "project_creation",
		Title:       "How projects are created",
		Description: "The steps create_project performs and how failures surface.",
		Content: `# Project creation

1. CREATE_NEW_PROJECT with the name and language.
2. START_NEW_SESSION in EDITOR mode; the reply is the editor slot id.
3. JOIN_SESSION as EDITOR; the reply carries the tokens for the slot.
4. Connect to the slot and subscribe to map-width and stakeholder updates.
5. Set the initial map size, finish the wizard and add a playable civilian stakeholder.
6. Wait until both updates arrive (15 s by default), then SAVE_PROJECT_INIT.

The editor slot connection is closed on every path. A timeout leaves an unsaved
project behind; calling get_project again returns it once the platform lists it.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
