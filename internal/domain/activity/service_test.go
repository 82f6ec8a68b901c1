package activity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		ActivityType: activity.TypeProjectCreated,
		Subject:      "TownA",
		Summary:      "created",
	}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, activity.ListActivityOptions{Subject: "TownA", Limit: 50}).Return([]activity.ActivityEntry{*entry}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.LogActivity(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())
	require.NotEmpty(t, entry.CorrelationID)

	entries, err := svc.GetRecentActivity(ctx, activity.ListActivityOptions{Subject: "TownA"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestActivityService_KeepsCorrelationID(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	repo.On("Log", ctx, mock.Anything).Return(nil)

	svc := activity.NewService(repo, nil)
	entry := &activity.ActivityEntry{ActivityType: activity.TypeSessionKilled, Subject: "slot 3", CorrelationID: "abc"}
	require.NoError(t, svc.LogActivity(ctx, entry))
	require.Equal(t, "abc", entry.CorrelationID)
}

func TestActivityService_LogValidation(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)
	require.ErrorIs(t, svc.LogActivity(context.Background(), nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(context.Background(), &activity.ActivityEntry{Subject: "x"}), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(context.Background(), &activity.ActivityEntry{ActivityType: activity.TypeProjectDeleted}), activity.ErrInvalidInput)
}

func TestActivityService_ClampsLimit(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	repo.On("List", ctx, activity.ListActivityOptions{Limit: 500}).Return([]activity.ActivityEntry{}, nil)

	svc := activity.NewService(repo, nil)
	_, err := svc.GetRecentActivity(ctx, activity.ListActivityOptions{Limit: 10_000, Offset: -4})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestActivityService_ListErrorIsWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk gone")

	repo := &mocks.ActivityRepository{}
	repo.On("List", ctx, mock.Anything).Return(nil, boom)

	svc := activity.NewService(repo, nil)
	_, err := svc.GetRecentActivity(ctx, activity.ListActivityOptions{})
	require.ErrorIs(t, err, boom)
}
