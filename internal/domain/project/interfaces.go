package project

import (
	"context"
	"encoding/json"

	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/remote"
)

// ServiceClient fires service events at the platform.
type ServiceClient interface {
	Fire(ctx context.Context, event string, args ...any) (json.RawMessage, error)
}

// Subscriber delivers slot notifications.
type Subscriber interface {
	Subscribe(link, enum string) (<-chan remote.Notification, func())
}

// EditConnection is an authenticated channel to an editor slot. It has a
// single owner, who must call Disconnect.
type EditConnection interface {
	Subscriber
	SlotID() int
	Fire(ctx context.Context, event string, args ...any) (json.RawMessage, error)
	Disconnect(ctx context.Context) error
}

// Dialer opens edit connections.
type Dialer interface {
	Dial(ctx context.Context, cfg remote.SlotConfig) (EditConnection, error)
}

// ActivityLogger records lifecycle operations.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
