package mocks

import (
	"context"
	"encoding/json"

	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/domain/project"
	"github.com/rpggio/tygron-connector/internal/remote"
	"github.com/stretchr/testify/mock"
)

// ServiceClient is a mock for the service event client used by the domain
// packages. Event arguments are matched as one []any, never nil.
type ServiceClient struct {
	mock.Mock
}

func (m *ServiceClient) Fire(ctx context.Context, event string, args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	ret := m.Called(ctx, event, args)
	if reply, ok := ret.Get(0).(json.RawMessage); ok {
		return reply, ret.Error(1)
	}
	return nil, ret.Error(1)
}

// EditConnection is a mock for project.EditConnection.
type EditConnection struct {
	mock.Mock
}

func (m *EditConnection) SlotID() int {
	args := m.Called()
	return args.Int(0)
}

func (m *EditConnection) Fire(ctx context.Context, event string, args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	ret := m.Called(ctx, event, args)
	if reply, ok := ret.Get(0).(json.RawMessage); ok {
		return reply, ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *EditConnection) Subscribe(link, enum string) (<-chan remote.Notification, func()) {
	args := m.Called(link, enum)
	ch, _ := args.Get(0).(<-chan remote.Notification)
	cancel, ok := args.Get(1).(func())
	if !ok {
		cancel = func() {}
	}
	return ch, cancel
}

func (m *EditConnection) Disconnect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Dialer is a mock for project.Dialer.
type Dialer struct {
	mock.Mock
}

func (m *Dialer) Dial(ctx context.Context, cfg remote.SlotConfig) (project.EditConnection, error) {
	args := m.Called(ctx, cfg)
	if conn, ok := args.Get(0).(project.EditConnection); ok {
		return conn, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityLogger is a mock for the activity sink used by the domain services.
type ActivityLogger struct {
	mock.Mock
}

func (m *ActivityLogger) LogActivity(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
