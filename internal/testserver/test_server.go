// Package testserver runs the full connector over streamable HTTP against a
// fake platform.
package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/domain/project"
	"github.com/rpggio/tygron-connector/internal/domain/session"
	"github.com/rpggio/tygron-connector/internal/mcp"
	"github.com/rpggio/tygron-connector/internal/remote"
	"github.com/rpggio/tygron-connector/internal/remote/remotetest"
	"github.com/rpggio/tygron-connector/internal/sqlite"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	Platform *remotetest.Platform
	DB       *sqlite.DB
}

// Option adjusts the services a TestServer builds.
type Option func(*options)

type options struct {
	initTimeout time.Duration
	strict      bool
}

// WithInitTimeout bounds how long project creation waits for confirmation.
func WithInitTimeout(d time.Duration) Option {
	return func(o *options) { o.initTimeout = d }
}

// WithStrictReplies makes the session catalog reject error replies.
func WithStrictReplies() Option {
	return func(o *options) { o.strict = true }
}

func New(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	o := options{initTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}

	platform := remotetest.New(t)

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	client, err := remote.New(platform.URL())
	require.NoError(t, err)

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	projectSvc := project.NewService(client, project.RemoteDialer(remote.NewDialer(client)), client.BaseURL(), nil,
		project.WithActivityLog(activitySvc),
		project.WithInitTimeout(o.initTimeout),
	)
	catalogOpts := []session.Option{session.WithActivityLog(activitySvc)}
	if o.strict {
		catalogOpts = append(catalogOpts, session.WithValidator(session.StrictValidator{}))
	}
	catalog := session.NewCatalog(client, nil, catalogOpts...)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Projects: projectSvc,
			Sessions: catalog,
			Activity: activitySvc,
		},
		TransportMode: "http",
	})
	handler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		nil,
	)
	server := httptest.NewServer(handler)

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		Platform: platform,
		DB:       db,
	}
}

// Connect opens an MCP client session to the server.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "testserver", Version: "0"}, nil)
	cs, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{Endpoint: ts.Server.URL}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

// Call invokes a tool and returns its text result and error flag.
func (ts *TestServer) Call(t *testing.T, cs *sdkmcp.ClientSession, tool string, args map[string]any) (string, bool) {
	t.Helper()

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: tool, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "tool %s returned %T", tool, res.Content[0])
	return text.Text, res.IsError
}
