package mcp

import (
	"time"

	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/domain/project"
	"github.com/rpggio/tygron-connector/internal/domain/session"
)

type ProjectNameParams struct {
	Name string `json:"name"`
}

type SlotParams struct {
	SlotID *int   `json:"slot_id"`
	Name   string `json:"name,omitempty"`
}

type MapParams struct {
	MapName string `json:"map_name"`
}

type GetRecentActivityParams struct {
	Subject string `json:"subject,omitempty"`
	SlotID  *int   `json:"slot_id,omitempty"`
	Type    string `json:"type,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

type ProjectResponse struct {
	Name         string                `json:"name"`
	Owner        string                `json:"owner,omitempty"`
	Language     string                `json:"language,omitempty"`
	MapSizeM     int                   `json:"map_size_m,omitempty"`
	Stakeholders []project.Stakeholder `json:"stakeholders,omitempty"`
}

type DeleteProjectResponse struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

type SessionResponse struct {
	ID          *int   `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Language    string `json:"language,omitempty"`
	Joined      bool   `json:"joined"`
	ClientToken string `json:"client_token,omitempty"`
	ServerToken string `json:"server_token,omitempty"`
}

type CreateSessionResponse struct {
	MapName string `json:"map_name"`
	SlotID  int    `json:"slot_id"`
}

type KillSessionResponse struct {
	SlotID int  `json:"slot_id"`
	Killed bool `json:"killed"`
}

type ActivityEntryResponse struct {
	Timestamp     time.Time             `json:"timestamp"`
	Type          activity.ActivityType `json:"type"`
	Subject       string                `json:"subject"`
	SlotID        *int                  `json:"slot_id,omitempty"`
	Summary       string                `json:"summary"`
	Details       string                `json:"details,omitempty"`
	CorrelationID string                `json:"correlation_id,omitempty"`
}

func newProjectResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		Name:         p.FileName,
		Owner:        p.Owner,
		Language:     p.Language,
		MapSizeM:     p.MapSizeM,
		Stakeholders: p.Stakeholders,
	}
}

func newSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		Name:        s.Name,
		Type:        s.Type,
		Language:    s.Language,
		Joined:      s.Joined(),
		ClientToken: s.ClientToken,
		ServerToken: s.ServerToken,
	}
}
