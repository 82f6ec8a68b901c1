package project_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/tygron-connector/internal/domain/project"
	"github.com/rpggio/tygron-connector/internal/remote"
	"github.com/rpggio/tygron-connector/internal/remote/remotetest"
	"github.com/stretchr/testify/require"
)

func TestProjectService_CreatesProjectAgainstPlatform(t *testing.T) {
	platform := remotetest.New(t)
	platform.Reply(remote.GetMyStartableProjects, []any{})
	platform.Reply(remote.CreateNewProject, map[string]any{"fileName": "TownA", "language": "EN"})
	platform.Reply(remote.StartNewSession, 7)
	platform.Reply(remote.JoinSession, map[string]any{
		"serverToken": "server-7",
		"client":      map[string]any{"clientToken": "client-7"},
	})
	platform.RequireTokens(7, "server-7", "client-7")
	platform.HandleSlot(remote.AddStakeholderWithType, func(int, []json.RawMessage) (any, []remote.Notification) {
		return nil, []remote.Notification{
			{MapLink: remote.LinkSettings, Enum: remote.SettingMapWidthMeters, Value: json.RawMessage("500")},
			{MapLink: remote.LinkStakeholders, Items: json.RawMessage(`[{"type":"CIVILIAN","playable":true}]`)},
		}
	})

	client, err := remote.New(platform.URL())
	require.NoError(t, err)
	svc := project.NewService(client, project.RemoteDialer(remote.NewDialer(client)), platform.URL(), nil,
		project.WithInitTimeout(5*time.Second))

	proj, err := svc.GetProject(context.Background(), "TownA")
	require.NoError(t, err)
	require.Equal(t, "TownA", proj.FileName)

	require.Equal(t, []string{
		remote.GetMyStartableProjects,
		remote.CreateNewProject,
		remote.StartNewSession,
		remote.JoinSession,
		remote.SetInitialMapSize,
		remote.WizardFinished,
		remote.AddStakeholderWithType,
		remote.SaveProjectInit,
	}, platform.Events())

	start := platform.Calls(remote.StartNewSession)[0]
	require.Equal(t, "EDITOR", remotetest.Arg[string](t, start, 0))
	require.Equal(t, "TownA", remotetest.Arg[string](t, start, 1))
	require.Equal(t, "EN", remotetest.Arg[string](t, start, 2))

	stakeholder := platform.Calls(remote.AddStakeholderWithType)[0]
	require.Equal(t, "CIVILIAN", remotetest.Arg[string](t, stakeholder, 0))
	require.True(t, remotetest.Arg[bool](t, stakeholder, 1))
	require.Equal(t, 7, remotetest.Arg[int](t, platform.Calls(remote.SaveProjectInit)[0], 0))

	require.Eventually(t, func() bool { return platform.Streams(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestProjectService_RejectedSlotAgainstPlatform(t *testing.T) {
	platform := remotetest.New(t)
	platform.Reply(remote.CreateNewProject, map[string]any{"fileName": "TownA"})
	platform.Reply(remote.StartNewSession, -1)

	client, err := remote.New(platform.URL())
	require.NoError(t, err)
	svc := project.NewService(client, project.RemoteDialer(remote.NewDialer(client)), platform.URL(), nil)

	_, err = svc.CreateProject(context.Background(), "TownA")
	require.ErrorIs(t, err, project.ErrInitialization)
	require.Empty(t, platform.Calls(remote.JoinSession))
	require.Zero(t, platform.Streams(-1))
}
