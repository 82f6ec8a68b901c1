package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/domain/project"
	"github.com/rpggio/tygron-connector/internal/domain/session"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	GetProject(ctx context.Context, name string) (*project.Project, error)
	CreateProject(ctx context.Context, name string) (*project.Project, error)
	DeleteProject(ctx context.Context, proj *project.Project) error
}

// SessionService defines session catalog operations needed by MCP.
type SessionService interface {
	ListJoinable(ctx context.Context) ([]session.Session, error)
	Join(ctx context.Context, sess *session.Session, slotID int) (bool, error)
	CreateOrJoin(ctx context.Context, mapName string) (*session.Session, error)
	Create(ctx context.Context, mapName string) (int, error)
	Kill(ctx context.Context, slotID int) (bool, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Projects ProjectService
	Sessions SessionService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "tygron-connector",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	handler := NewHandler(cfg.Services.Projects, cfg.Services.Sessions, cfg.Services.Activity, cfg.Logger)
	registerTools(server, handler)

	cfg.Logger.Info("mcp server configured", "transport", cfg.TransportMode, "tools", len(buildToolCatalog()))
	return server
}
