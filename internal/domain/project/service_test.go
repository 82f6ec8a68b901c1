package project_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/domain/project"
	"github.com/rpggio/tygron-connector/internal/remote"
	"github.com/rpggio/tygron-connector/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const serverAddr = "https://platform.example"

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

type fixture struct {
	ctx          context.Context
	remote       *mocks.ServiceClient
	dialer       *mocks.Dialer
	conn         *mocks.EditConnection
	stakeholders chan remote.Notification
	mapWidth     chan remote.Notification
}

func newFixture() *fixture {
	f := &fixture{
		ctx:          context.Background(),
		remote:       &mocks.ServiceClient{},
		dialer:       &mocks.Dialer{},
		conn:         &mocks.EditConnection{},
		stakeholders: make(chan remote.Notification, 1),
		mapWidth:     make(chan remote.Notification, 1),
	}
	f.conn.On("SlotID").Return(7).Maybe()
	f.conn.On("Subscribe", remote.LinkStakeholders, "").Return((<-chan remote.Notification)(f.stakeholders), func() {})
	f.conn.On("Subscribe", remote.LinkSettings, remote.SettingMapWidthMeters).Return((<-chan remote.Notification)(f.mapWidth), func() {})
	return f
}

func (f *fixture) service(opts ...project.Option) *project.Service {
	return project.NewService(f.remote, f.dialer, serverAddr, nil, opts...)
}

// expectSlot sets up project creation through a joined editor slot 7.
func (f *fixture) expectSlot(name string) {
	f.remote.On("Fire", f.ctx, remote.CreateNewProject, []any{name, "EN"}).
		Return(raw(`{"fileName":"`+name+`","language":"EN"}`), nil).Once()
	f.remote.On("Fire", f.ctx, remote.StartNewSession, []any{"EDITOR", name, "EN"}).Return(raw("7"), nil).Once()
	f.remote.On("Fire", f.ctx, remote.JoinSession, []any{7, "EDITOR"}).
		Return(raw(`{"serverToken":"server-tok","client":{"clientToken":"client-tok"}}`), nil).Once()
	f.dialer.On("Dial", f.ctx, remote.SlotConfig{
		AppType:     "EDITOR",
		ServerAddr:  serverAddr,
		SlotID:      7,
		ServerToken: "server-tok",
		ClientToken: "client-tok",
	}).Return(f.conn, nil).Once()
}

// expectEdits accepts the three initialization edits. When confirm is set the
// stakeholder edit triggers both confirmations.
func (f *fixture) expectEdits(confirm bool) {
	f.conn.On("Fire", f.ctx, remote.SetInitialMapSize, []any{500}).Return(raw("null"), nil).Once()
	f.conn.On("Fire", f.ctx, remote.WizardFinished, []any{}).Return(raw("null"), nil).Once()
	f.conn.On("Fire", f.ctx, remote.AddStakeholderWithType, []any{"CIVILIAN", true}).
		Run(func(mock.Arguments) {
			if !confirm {
				return
			}
			go func() {
				time.Sleep(10 * time.Millisecond)
				f.mapWidth <- remote.Notification{MapLink: remote.LinkSettings, Enum: remote.SettingMapWidthMeters, Value: raw("500")}
				f.stakeholders <- remote.Notification{MapLink: remote.LinkStakeholders, Items: raw(`[{"type":"CIVILIAN"}]`)}
			}()
		}).
		Return(raw("null"), nil).Once()
}

func TestProjectService_GetProjectFetchesListedProject(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.GetMyStartableProjects, []any{}).
		Return(raw(`[{"fileName":"towna"},{"fileName":"TownA"}]`), nil)
	f.remote.On("Fire", f.ctx, remote.GetProjectData, []any{"TownA"}).
		Return(raw(`{"fileName":"TownA","mapSizeM":500,"stakeholders":[{"type":"CIVILIAN","playable":true}]}`), nil)

	proj, err := f.service().GetProject(f.ctx, "TownA")
	require.NoError(t, err)
	require.Equal(t, "TownA", proj.FileName)
	require.Equal(t, 500, proj.MapSizeM)
	require.Equal(t, []project.Stakeholder{{Type: "CIVILIAN", Playable: true}}, proj.Stakeholders)

	f.remote.AssertNotCalled(t, "Fire", f.ctx, remote.CreateNewProject, mock.Anything)
	f.dialer.AssertNotCalled(t, "Dial", mock.Anything, mock.Anything)
	f.remote.AssertExpectations(t)
}

func TestProjectService_GetProjectCreatesWhenNotListed(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.GetMyStartableProjects, []any{}).
		Return(raw(`[{"fileName":"towna"},{"fileName":"TownAB"}]`), nil)
	f.expectSlot("TownA")
	f.expectEdits(true)
	f.remote.On("Fire", f.ctx, remote.SaveProjectInit, []any{7}).Return(raw("null"), nil).Once()
	f.conn.On("Disconnect", mock.Anything).Return(nil).Once()

	proj, err := f.service().GetProject(f.ctx, "TownA")
	require.NoError(t, err)
	require.Equal(t, "TownA", proj.FileName)

	f.remote.AssertNumberOfCalls(t, "Fire", 5)
	f.remote.AssertNotCalled(t, "Fire", f.ctx, remote.GetProjectData, mock.Anything)
	f.remote.AssertExpectations(t)
}

func TestProjectService_GetProjectNullListingCreates(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.GetMyStartableProjects, []any{}).Return(raw("null"), nil)
	f.expectSlot("TownA")
	f.expectEdits(true)
	f.remote.On("Fire", f.ctx, remote.SaveProjectInit, []any{7}).Return(raw("null"), nil).Once()
	f.conn.On("Disconnect", mock.Anything).Return(nil).Once()

	_, err := f.service().GetProject(f.ctx, "TownA")
	require.NoError(t, err)
	f.remote.AssertNotCalled(t, "Fire", f.ctx, remote.GetProjectData, mock.Anything)
}

func TestProjectService_GetProjectMissingData(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.GetMyStartableProjects, []any{}).Return(raw(`[{"fileName":"TownA"}]`), nil)
	f.remote.On("Fire", f.ctx, remote.GetProjectData, []any{"TownA"}).Return(raw("null"), nil)

	_, err := f.service().GetProject(f.ctx, "TownA")
	require.ErrorIs(t, err, project.ErrNotFound)
}

func TestProjectService_GetProjectValidation(t *testing.T) {
	f := newFixture()
	_, err := f.service().GetProject(f.ctx, "  ")
	require.ErrorIs(t, err, project.ErrInvalidInput)
	f.remote.AssertNotCalled(t, "Fire", mock.Anything, mock.Anything, mock.Anything)
}

func TestProjectService_GetProjectTransportFault(t *testing.T) {
	f := newFixture()
	boom := errors.New("connection reset")
	f.remote.On("Fire", f.ctx, remote.GetMyStartableProjects, []any{}).Return(nil, boom)

	_, err := f.service().GetProject(f.ctx, "TownA")
	require.ErrorIs(t, err, boom)
}

func TestProjectService_CreateProjectTownA(t *testing.T) {
	f := newFixture()
	f.expectSlot("TownA")
	f.expectEdits(true)
	f.remote.On("Fire", f.ctx, remote.SaveProjectInit, []any{7}).Return(raw("null"), nil).Once()
	f.conn.On("Disconnect", mock.Anything).Return(nil).Once()

	start := time.Now()
	proj, err := f.service().CreateProject(f.ctx, "TownA")
	require.NoError(t, err)
	require.Equal(t, "TownA", proj.FileName)
	require.Less(t, time.Since(start), 2*time.Second)

	f.conn.AssertNumberOfCalls(t, "Disconnect", 1)
	f.remote.AssertExpectations(t)
	f.dialer.AssertExpectations(t)
	f.conn.AssertExpectations(t)
}

func TestProjectService_CreateProjectNegativeSlot(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.CreateNewProject, []any{"TownA", "EN"}).Return(raw(`{"fileName":"TownA"}`), nil)
	f.remote.On("Fire", f.ctx, remote.StartNewSession, []any{"EDITOR", "TownA", "EN"}).Return(raw("-1"), nil)

	_, err := f.service().CreateProject(f.ctx, "TownA")
	require.ErrorIs(t, err, project.ErrInitialization)

	f.remote.AssertNotCalled(t, "Fire", f.ctx, remote.JoinSession, mock.Anything)
	f.dialer.AssertNotCalled(t, "Dial", mock.Anything, mock.Anything)
	f.conn.AssertNotCalled(t, "Disconnect", mock.Anything)
}

func TestProjectService_CreateProjectNullSlot(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.CreateNewProject, []any{"TownA", "EN"}).Return(raw(`{"fileName":"TownA"}`), nil)
	f.remote.On("Fire", f.ctx, remote.StartNewSession, []any{"EDITOR", "TownA", "EN"}).Return(raw("null"), nil)

	_, err := f.service().CreateProject(f.ctx, "TownA")
	require.ErrorIs(t, err, project.ErrInitialization)
	f.dialer.AssertNotCalled(t, "Dial", mock.Anything, mock.Anything)
}

func TestProjectService_CreateProjectNotCreated(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.CreateNewProject, []any{"TownA", "EN"}).Return(raw("null"), nil)

	_, err := f.service().CreateProject(f.ctx, "TownA")
	require.ErrorIs(t, err, project.ErrInitialization)
	f.remote.AssertNotCalled(t, "Fire", f.ctx, remote.StartNewSession, mock.Anything)
}

func TestProjectService_CreateProjectUsesFileNameFromReply(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.CreateNewProject, []any{"Town A", "EN"}).Return(raw(`{"fileName":"town_a"}`), nil)
	f.remote.On("Fire", f.ctx, remote.StartNewSession, []any{"EDITOR", "town_a", "EN"}).Return(raw("-1"), nil)

	_, err := f.service().CreateProject(f.ctx, "Town A")
	require.ErrorIs(t, err, project.ErrInitialization)
	require.Contains(t, err.Error(), "town_a")
}

func TestProjectService_CreateProjectSaveFailureDisconnects(t *testing.T) {
	f := newFixture()
	f.expectSlot("TownA")
	f.expectEdits(true)
	f.remote.On("Fire", f.ctx, remote.SaveProjectInit, []any{7}).Return(raw(`"map upload incomplete"`), nil).Once()
	f.conn.On("Disconnect", mock.Anything).Return(nil).Once()

	_, err := f.service().CreateProject(f.ctx, "TownA")
	require.ErrorIs(t, err, project.ErrSave)
	require.Contains(t, err.Error(), "map upload incomplete")
	f.conn.AssertNumberOfCalls(t, "Disconnect", 1)
}

func TestProjectService_CreateProjectEmptySaveMessageSucceeds(t *testing.T) {
	f := newFixture()
	f.expectSlot("TownA")
	f.expectEdits(true)
	f.remote.On("Fire", f.ctx, remote.SaveProjectInit, []any{7}).Return(raw(`""`), nil).Once()
	f.conn.On("Disconnect", mock.Anything).Return(nil).Once()

	_, err := f.service().CreateProject(f.ctx, "TownA")
	require.NoError(t, err)
}

func TestProjectService_CreateProjectTimeoutDisconnects(t *testing.T) {
	f := newFixture()
	f.expectSlot("TownA")
	f.expectEdits(false)
	f.conn.On("Disconnect", mock.Anything).Return(nil).Once()

	_, err := f.service(project.WithInitTimeout(50*time.Millisecond)).CreateProject(f.ctx, "TownA")
	require.ErrorIs(t, err, project.ErrTimeout)

	f.remote.AssertNotCalled(t, "Fire", f.ctx, remote.SaveProjectInit, mock.Anything)
	f.conn.AssertNumberOfCalls(t, "Disconnect", 1)
}

func TestProjectService_CreateProjectEditFailureDisconnects(t *testing.T) {
	f := newFixture()
	f.expectSlot("TownA")
	boom := errors.New("slot gone")
	f.conn.On("Fire", f.ctx, remote.SetInitialMapSize, []any{500}).Return(nil, boom).Once()
	f.conn.On("Disconnect", mock.Anything).Return(nil).Once()

	_, err := f.service().CreateProject(f.ctx, "TownA")
	require.ErrorIs(t, err, boom)
	f.conn.AssertNotCalled(t, "Fire", f.ctx, remote.WizardFinished, mock.Anything)
	f.conn.AssertNumberOfCalls(t, "Disconnect", 1)
}

func TestProjectService_CreateProjectDisconnectFailureKeepsResult(t *testing.T) {
	f := newFixture()
	f.expectSlot("TownA")
	f.expectEdits(true)
	f.remote.On("Fire", f.ctx, remote.SaveProjectInit, []any{7}).Return(raw("null"), nil).Once()
	f.conn.On("Disconnect", mock.Anything).Return(errors.New("already closed")).Once()

	proj, err := f.service().CreateProject(f.ctx, "TownA")
	require.NoError(t, err)
	require.Equal(t, "TownA", proj.FileName)
}

func TestProjectService_CreateProjectCustomMapSizeAndLanguage(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.CreateNewProject, []any{"Dorp", "NL"}).Return(raw(`{"fileName":"Dorp"}`), nil)
	f.remote.On("Fire", f.ctx, remote.StartNewSession, []any{"EDITOR", "Dorp", "NL"}).Return(raw("2"), nil)
	f.remote.On("Fire", f.ctx, remote.JoinSession, []any{2, "EDITOR"}).Return(raw(`{"serverToken":"s","client":{"clientToken":"c"}}`), nil)
	f.dialer.On("Dial", f.ctx, mock.Anything).Return(f.conn, nil)
	f.conn.On("Fire", f.ctx, remote.SetInitialMapSize, []any{1000}).Return(nil, errors.New("stop here"))
	f.conn.On("Disconnect", mock.Anything).Return(nil).Once()

	svc := f.service(project.WithLanguage("NL"), project.WithInitialMapSize(1000))
	_, err := svc.CreateProject(f.ctx, "Dorp")
	require.Error(t, err)
	f.conn.AssertCalled(t, "Fire", f.ctx, remote.SetInitialMapSize, []any{1000})
}

func TestProjectService_CreateProjectRecordsActivity(t *testing.T) {
	f := newFixture()
	f.expectSlot("TownA")
	f.expectEdits(true)
	f.remote.On("Fire", f.ctx, remote.SaveProjectInit, []any{7}).Return(raw("null"), nil).Once()
	f.conn.On("Disconnect", mock.Anything).Return(nil).Once()

	log := &mocks.ActivityLogger{}
	log.On("LogActivity", f.ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeEditSessionOpened && *e.SlotID == 7
	})).Return(nil).Once()
	log.On("LogActivity", f.ctx, mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeProjectCreated && e.Subject == "TownA"
	})).Return(errors.New("log full")).Once()

	_, err := f.service(project.WithActivityLog(log)).CreateProject(f.ctx, "TownA")
	require.NoError(t, err)
	log.AssertExpectations(t)
}

func TestProjectService_OpenEditSessionNoReply(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.JoinSession, []any{3, "EDITOR"}).Return(raw("null"), nil)

	_, err := f.service().OpenEditSession(f.ctx, 3)
	require.ErrorIs(t, err, project.ErrJoin)
	f.dialer.AssertNotCalled(t, "Dial", mock.Anything, mock.Anything)
}

func TestProjectService_OpenEditSessionConnectFailure(t *testing.T) {
	f := newFixture()
	dialErr := errors.New("handshake refused")
	f.remote.On("Fire", f.ctx, remote.JoinSession, []any{3, "EDITOR"}).
		Return(raw(`{"serverToken":"s","client":{"clientToken":"c"}}`), nil)
	f.dialer.On("Dial", f.ctx, mock.Anything).Return(nil, dialErr)

	_, err := f.service().OpenEditSession(f.ctx, 3)
	require.ErrorIs(t, err, project.ErrConnect)
	require.ErrorIs(t, err, dialErr)
}

func TestProjectService_OpenEditSessionPassesTokens(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.JoinSession, []any{3, "EDITOR"}).
		Return(raw(`{"serverToken":"s-3","client":{"clientToken":"c-3"}}`), nil)
	f.dialer.On("Dial", f.ctx, remote.SlotConfig{
		AppType:     "EDITOR",
		ServerAddr:  serverAddr,
		SlotID:      3,
		ServerToken: "s-3",
		ClientToken: "c-3",
	}).Return(f.conn, nil)

	conn, err := f.service().OpenEditSession(f.ctx, 3)
	require.NoError(t, err)
	require.Same(t, f.conn, conn)
}

func TestProjectService_DeleteProject(t *testing.T) {
	f := newFixture()
	f.remote.On("Fire", f.ctx, remote.DeleteProject, []any{"TownA"}).Return(raw("true"), nil)

	require.NoError(t, f.service().DeleteProject(f.ctx, &project.Project{FileName: "TownA"}))
}

func TestProjectService_DeleteProjectRefused(t *testing.T) {
	for _, reply := range []string{"false", "null"} {
		f := newFixture()
		f.remote.On("Fire", f.ctx, remote.DeleteProject, []any{"TownA"}).Return(raw(reply), nil)

		err := f.service().DeleteProject(f.ctx, &project.Project{FileName: "TownA"})
		require.ErrorIs(t, err, project.ErrDeletion, "reply %s", reply)
	}
}

func TestProjectService_DeleteProjectValidation(t *testing.T) {
	f := newFixture()
	require.ErrorIs(t, f.service().DeleteProject(f.ctx, nil), project.ErrInvalidInput)
	require.ErrorIs(t, f.service().DeleteProject(f.ctx, &project.Project{}), project.ErrInvalidInput)
}
