package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProjectFetched    ActivityType = "project_fetched"
	TypeProjectCreated    ActivityType = "project_created"
	TypeProjectDeleted    ActivityType = "project_deleted"
	TypeEditSessionOpened ActivityType = "edit_session_opened"
	TypeSessionJoined     ActivityType = "session_joined"
	TypeSessionCreated    ActivityType = "session_created"
	TypeSessionKilled     ActivityType = "session_killed"
)

// ActivityEntry represents a lifecycle operation performed against the platform
type ActivityEntry struct {
	ID            int64        `json:"id"`
	ActivityType  ActivityType `json:"type"`
	Subject       string       `json:"subject"`
	SlotID        *int         `json:"slot_id,omitempty"`
	Summary       string       `json:"summary"`
	Details       string       `json:"details,omitempty"` // JSON string
	CorrelationID string       `json:"correlation_id"`
	CreatedAt     time.Time    `json:"created_at"`
}
