package session

import (
	"context"
	"encoding/json"

	"github.com/rpggio/tygron-connector/internal/domain/activity"
)

// ServiceClient fires service events at the platform.
type ServiceClient interface {
	Fire(ctx context.Context, event string, args ...any) (json.RawMessage, error)
}

// ActivityLogger records lifecycle operations.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.ActivityEntry) error
}
