package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/domain/project"
	"github.com/rpggio/tygron-connector/internal/domain/session"
)

// Handler dispatches MCP commands.
type Handler struct {
	projects ProjectService
	sessions SessionService
	activity ActivityService
	logger   *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(projects ProjectService, sessions SessionService, activitySvc ActivityService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		projects: projects,
		sessions: sessions,
		activity: activitySvc,
		logger:   logger,
	}
}

// Handle dispatches MCP requests to domain services.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	h.logger.Debug("tool call", "method", method, "session_id", getSessionID(ctx))

	switch method {
	case "get_project":
		var req ProjectNameParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		proj, err := h.projects.GetProject(ctx, req.Name)
		if err != nil {
			return nil, mapError(err)
		}
		return newProjectResponse(proj), nil
	case "create_project":
		var req ProjectNameParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		proj, err := h.projects.CreateProject(ctx, req.Name)
		if err != nil {
			return nil, mapError(err)
		}
		return newProjectResponse(proj), nil
	case "delete_project":
		var req ProjectNameParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.projects.DeleteProject(ctx, &project.Project{FileName: req.Name}); err != nil {
			return nil, mapError(err)
		}
		return DeleteProjectResponse{Name: req.Name, Deleted: true}, nil

	case "list_sessions":
		sessions, err := h.sessions.ListJoinable(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		resp := make([]SessionResponse, 0, len(sessions))
		for i := range sessions {
			resp = append(resp, newSessionResponse(&sessions[i]))
		}
		return resp, nil
	case "join_session":
		var req SlotParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.SlotID == nil {
			return nil, fmt.Errorf("%w: slot_id is required", errInvalidParams)
		}
		sess := &session.Session{ID: req.SlotID, Name: req.Name}
		if _, err := h.sessions.Join(ctx, sess, *req.SlotID); err != nil {
			return nil, mapError(err)
		}
		return newSessionResponse(sess), nil
	case "create_or_join_session":
		var req MapParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.sessions.CreateOrJoin(ctx, req.MapName)
		if err != nil {
			return nil, mapError(err)
		}
		return newSessionResponse(sess), nil
	case "create_session":
		var req MapParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		id, err := h.sessions.Create(ctx, req.MapName)
		if err != nil {
			return nil, mapError(err)
		}
		return CreateSessionResponse{MapName: req.MapName, SlotID: id}, nil
	case "kill_session":
		var req SlotParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.SlotID == nil {
			return nil, fmt.Errorf("%w: slot_id is required", errInvalidParams)
		}
		killed, err := h.sessions.Kill(ctx, *req.SlotID)
		if err != nil {
			return nil, mapError(err)
		}
		return KillSessionResponse{SlotID: *req.SlotID, Killed: killed}, nil

	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		opts := activity.ListActivityOptions{
			Subject: req.Subject,
			SlotID:  req.SlotID,
			Limit:   req.Limit,
			Offset:  req.Offset,
		}
		if req.Type != "" {
			typ := activity.ActivityType(req.Type)
			opts.ActivityType = &typ
		}
		entries, err := h.activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, mapError(err)
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp:     entry.CreatedAt,
				Type:          entry.ActivityType,
				Subject:       entry.Subject,
				SlotID:        entry.SlotID,
				Summary:       entry.Summary,
				Details:       entry.Details,
				CorrelationID: entry.CorrelationID,
			})
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("unknown method: %s", method)
	}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %w", errInvalidParams, err)
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
