package integration_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/tygron-connector/internal/remote"
	"github.com/rpggio/tygron-connector/internal/remote/remotetest"
	"github.com/rpggio/tygron-connector/internal/testserver"
	"github.com/stretchr/testify/require"
)

func confirmInit(platform *remotetest.Platform) {
	platform.HandleSlot(remote.AddStakeholderWithType, func(int, []json.RawMessage) (any, []remote.Notification) {
		return nil, []remote.Notification{
			{MapLink: remote.LinkSettings, Enum: remote.SettingMapWidthMeters, Value: json.RawMessage("500")},
			{MapLink: remote.LinkStakeholders, Items: json.RawMessage(`[{"type":"CIVILIAN","playable":true}]`)},
		}
	})
}

func editorSlot(platform *remotetest.Platform, slotID int) {
	platform.Reply(remote.StartNewSession, slotID)
	platform.Reply(remote.JoinSession, map[string]any{
		"serverToken": "server",
		"client":      map[string]any{"clientToken": "client"},
	})
	platform.RequireTokens(slotID, "server", "client")
}

func TestIntegration_ColdStartCreatesProject(t *testing.T) {
	ts := testserver.New(t)
	cs := ts.Connect(t)

	ts.Platform.Reply(remote.GetMyStartableProjects, []any{})
	ts.Platform.Reply(remote.CreateNewProject, map[string]any{"fileName": "TownA"})
	editorSlot(ts.Platform, 7)
	confirmInit(ts.Platform)

	text, isErr := ts.Call(t, cs, "get_project", map[string]any{"name": "TownA"})
	require.False(t, isErr, text)
	require.JSONEq(t, `{"name":"TownA"}`, text)

	require.Len(t, ts.Platform.Calls(remote.SaveProjectInit), 1)
	require.Eventually(t, func() bool { return ts.Platform.Streams(7) == 0 }, 2*time.Second, 10*time.Millisecond)

	text, isErr = ts.Call(t, cs, "get_recent_activity", map[string]any{"subject": "TownA"})
	require.False(t, isErr, text)
	var entries []struct {
		Type   string `json:"type"`
		SlotID *int   `json:"slot_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "project_created", entries[0].Type)
	require.Equal(t, 7, *entries[0].SlotID)
}

func TestIntegration_ExistingProjectIsFetched(t *testing.T) {
	ts := testserver.New(t)
	cs := ts.Connect(t)

	ts.Platform.Reply(remote.GetMyStartableProjects, []any{map[string]any{"fileName": "TownA"}})
	ts.Platform.Reply(remote.GetProjectData, map[string]any{"fileName": "TownA", "owner": "planner", "mapSizeM": 500})

	text, isErr := ts.Call(t, cs, "get_project", map[string]any{"name": "TownA"})
	require.False(t, isErr, text)
	require.JSONEq(t, `{"name":"TownA","owner":"planner","map_size_m":500}`, text)
	require.Empty(t, ts.Platform.Calls(remote.CreateNewProject))
}

func TestIntegration_UnconfirmedInitTimesOut(t *testing.T) {
	ts := testserver.New(t, testserver.WithInitTimeout(200*time.Millisecond))
	cs := ts.Connect(t)

	ts.Platform.Reply(remote.CreateNewProject, map[string]any{"fileName": "TownA"})
	editorSlot(ts.Platform, 8)

	text, isErr := ts.Call(t, cs, "create_project", map[string]any{"name": "TownA"})
	require.True(t, isErr)
	require.Contains(t, text, "INIT_TIMEOUT")
	require.Empty(t, ts.Platform.Calls(remote.SaveProjectInit))
	require.Eventually(t, func() bool { return ts.Platform.Streams(8) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestIntegration_DeleteProject(t *testing.T) {
	ts := testserver.New(t)
	cs := ts.Connect(t)

	ts.Platform.Reply(remote.DeleteProject, true)
	text, isErr := ts.Call(t, cs, "delete_project", map[string]any{"name": "TownA"})
	require.False(t, isErr, text)
	require.Equal(t, "TownA", remotetest.Arg[string](t, ts.Platform.Calls(remote.DeleteProject)[0], 0))

	ts.Platform.Reply(remote.DeleteProject, false)
	text, isErr = ts.Call(t, cs, "delete_project", map[string]any{"name": "TownA"})
	require.True(t, isErr)
	require.Contains(t, text, "DELETE_FAILED")
}

func TestIntegration_SessionWorkflow(t *testing.T) {
	ts := testserver.New(t)
	cs := ts.Connect(t)

	ts.Platform.Reply(remote.GetJoinableSessions, []any{
		map[string]any{"name": "Delta", "sessionType": "MULTI", "id": 3},
	})
	ts.Platform.Reply(remote.JoinSession, map[string]any{"sessionClientToken": "client-3", "serverToken": "server-3"})
	ts.Platform.Reply(remote.StartNewSession, 12)
	ts.Platform.Reply(remote.KillSession, map[string]any{})

	text, isErr := ts.Call(t, cs, "create_or_join_session", map[string]any{"map_name": "Delta"})
	require.False(t, isErr, text)
	require.JSONEq(t, `{"id":3,"name":"Delta","type":"MULTI","language":"MULTI","joined":false}`, text)

	text, isErr = ts.Call(t, cs, "join_session", map[string]any{"slot_id": 3, "name": "Delta"})
	require.False(t, isErr, text)
	require.Contains(t, text, "client-3")

	join := ts.Platform.Calls(remote.JoinSession)[0]
	require.Equal(t, "VIEWER", remotetest.Arg[string](t, join, 1))
	require.Equal(t, "Tygron-API-Agent", remotetest.Arg[string](t, join, 3))

	text, isErr = ts.Call(t, cs, "create_session", map[string]any{"map_name": "Delta"})
	require.False(t, isErr, text)
	require.JSONEq(t, `{"map_name":"Delta","slot_id":-1}`, text)

	text, isErr = ts.Call(t, cs, "kill_session", map[string]any{"slot_id": 3})
	require.False(t, isErr, text)
	require.JSONEq(t, `{"slot_id":3,"killed":true}`, text)
}

func TestIntegration_UnknownMapYieldsEmptySession(t *testing.T) {
	ts := testserver.New(t)
	cs := ts.Connect(t)

	ts.Platform.Reply(remote.GetJoinableSessions, []any{})

	text, isErr := ts.Call(t, cs, "create_or_join_session", map[string]any{"map_name": "Unknown"})
	require.False(t, isErr, text)
	require.JSONEq(t, `{"id":null,"name":"","joined":false}`, text)
	require.Empty(t, ts.Platform.Calls(remote.StartNewSession))
}

func TestIntegration_StrictRepliesRejectErrors(t *testing.T) {
	ts := testserver.New(t, testserver.WithStrictReplies())
	cs := ts.Connect(t)

	ts.Platform.Reply(remote.JoinSession, map[string]any{"error": "slot full"})

	text, isErr := ts.Call(t, cs, "join_session", map[string]any{"slot_id": 3})
	require.True(t, isErr)
	require.Contains(t, text, "REJECTED")
	require.Contains(t, text, "slot full")
}
