package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/remote"
)

const (
	defaultMapSizeM   = 500
	disconnectTimeout = 5 * time.Second
)

// Service creates, fetches and deletes projects on the platform.
type Service struct {
	remote      ServiceClient
	dialer      Dialer
	serverAddr  string
	activity    ActivityLogger
	language    string
	mapSizeM    int
	initTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(s *Service)

// WithActivityLog records every lifecycle operation to log.
func WithActivityLog(log ActivityLogger) Option {
	return func(s *Service) { s.activity = log }
}

// WithInitTimeout bounds the wait for initialization confirmations.
func WithInitTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.initTimeout = d
		}
	}
}

// WithLanguage sets the language new projects and editor sessions are created in.
func WithLanguage(lang string) Option {
	return func(s *Service) {
		if lang != "" {
			s.language = lang
		}
	}
}

// WithInitialMapSize sets the map width in meters pushed to new projects.
func WithInitialMapSize(meters int) Option {
	return func(s *Service) {
		if meters > 0 {
			s.mapSizeM = meters
		}
	}
}

// NewService creates a new project service. Edit connections are dialed at
// serverAddr.
func NewService(remoteClient ServiceClient, dialer Dialer, serverAddr string, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		remote:      remoteClient,
		dialer:      dialer,
		serverAddr:  serverAddr,
		language:    remote.LanguageEN,
		mapSizeM:    defaultMapSizeM,
		initTimeout: DefaultInitTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetProject returns the startable project whose file name equals name
// exactly. When there is none, the project is created.
func (s *Service) GetProject(ctx context.Context, name string) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}

	reply, err := s.remote.Fire(ctx, remote.GetMyStartableProjects)
	if err != nil {
		return nil, fmt.Errorf("listing startable projects: %w", err)
	}
	var startable []Project
	if _, err := decodeReply(remote.GetMyStartableProjects, reply, &startable); err != nil {
		return nil, err
	}

	for _, existing := range startable {
		if existing.FileName == name {
			return s.fetch(ctx, name)
		}
	}

	s.logger.Info("project not startable, creating", "name", name)
	return s.CreateProject(ctx, name)
}

func (s *Service) fetch(ctx context.Context, name string) (*Project, error) {
	reply, err := s.remote.Fire(ctx, remote.GetProjectData, name)
	if err != nil {
		return nil, fmt.Errorf("loading project %q: %w", name, err)
	}
	var proj Project
	found, err := decodeReply(remote.GetProjectData, reply, &proj)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	s.record(ctx, &activity.ActivityEntry{
		ActivityType: activity.TypeProjectFetched,
		Subject:      proj.FileName,
		Summary:      "loaded existing project",
	})
	return &proj, nil
}

// CreateProject creates a project, initializes it with a map and one playable
// civilian stakeholder, waits for the platform to confirm both, and saves it.
// The edit connection opened for initialization is always disconnected before
// returning.
func (s *Service) CreateProject(ctx context.Context, name string) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}

	reply, err := s.remote.Fire(ctx, remote.CreateNewProject, name, s.language)
	if err != nil {
		return nil, fmt.Errorf("creating project %q: %w", name, err)
	}
	var proj Project
	found, err := decodeReply(remote.CreateNewProject, reply, &proj)
	if err != nil {
		return nil, err
	}
	if !found || proj.FileName == "" {
		return nil, fmt.Errorf("%w: platform did not create project %q", ErrInitialization, name)
	}

	reply, err = s.remote.Fire(ctx, remote.StartNewSession, remote.SessionEditor, proj.FileName, s.language)
	if err != nil {
		return nil, fmt.Errorf("starting editor session for %q: %w", proj.FileName, err)
	}
	var slotID *int
	if _, err := decodeReply(remote.StartNewSession, reply, &slotID); err != nil {
		return nil, err
	}
	if slotID == nil || *slotID < 0 {
		return nil, fmt.Errorf("%w: no editor slot for project %q", ErrInitialization, proj.FileName)
	}

	conn, err := s.OpenEditSession(ctx, *slotID)
	if err != nil {
		return nil, err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer cancel()
		if derr := conn.Disconnect(dctx); derr != nil {
			s.logger.Warn("disconnecting editor slot", "slot", *slotID, "error", derr)
		}
	}()

	waiter := NewInitWaiter(conn, s.initTimeout, s.logger)
	defer waiter.Close()

	if err := s.initialize(ctx, conn); err != nil {
		return nil, err
	}
	if err := waiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("initializing project %q: %w", proj.FileName, err)
	}

	reply, err = s.remote.Fire(ctx, remote.SaveProjectInit, *slotID)
	if err != nil {
		return nil, fmt.Errorf("saving project %q: %w", proj.FileName, err)
	}
	if err := saveFailure(reply); err != nil {
		return nil, fmt.Errorf("%w: %q: %s", ErrSave, proj.FileName, err)
	}

	s.logger.Info("project created", "name", proj.FileName, "slot", *slotID, "map_size_m", s.mapSizeM)
	s.record(ctx, &activity.ActivityEntry{
		ActivityType: activity.TypeProjectCreated,
		Subject:      proj.FileName,
		SlotID:       slotID,
		Summary:      fmt.Sprintf("created with %dm map and a playable %s stakeholder", s.mapSizeM, StakeholderCivilian),
	})
	return &proj, nil
}

// initialize pushes the initial map size, closes the setup wizard and adds a
// playable civilian stakeholder.
func (s *Service) initialize(ctx context.Context, conn EditConnection) error {
	steps := []struct {
		event string
		args  []any
	}{
		{remote.SetInitialMapSize, []any{s.mapSizeM}},
		{remote.WizardFinished, nil},
		{remote.AddStakeholderWithType, []any{StakeholderCivilian, true}},
	}
	for _, step := range steps {
		if _, err := conn.Fire(ctx, step.event, step.args...); err != nil {
			return fmt.Errorf("editing slot %d: %w", conn.SlotID(), err)
		}
	}
	return nil
}

// OpenEditSession joins slotID as editor and connects to it. The caller owns
// the returned connection and must disconnect it.
func (s *Service) OpenEditSession(ctx context.Context, slotID int) (EditConnection, error) {
	reply, err := s.remote.Fire(ctx, remote.JoinSession, slotID, remote.AppEditor)
	if err != nil {
		return nil, fmt.Errorf("joining slot %d: %w", slotID, err)
	}
	var join JoinReply
	found, err := decodeReply(remote.JoinSession, reply, &join)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJoin, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: no reply for slot %d", ErrJoin, slotID)
	}

	conn, err := s.dialer.Dial(ctx, remote.SlotConfig{
		AppType:     remote.AppEditor,
		ServerAddr:  s.serverAddr,
		SlotID:      slotID,
		ServerToken: join.ServerToken,
		ClientToken: join.Client.ClientToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: slot %d: %w", ErrConnect, slotID, err)
	}

	s.record(ctx, &activity.ActivityEntry{
		ActivityType: activity.TypeEditSessionOpened,
		Subject:      fmt.Sprintf("slot %d", slotID),
		SlotID:       &slotID,
		Summary:      "joined as editor",
	})
	return conn, nil
}

// DeleteProject deletes proj on the platform.
func (s *Service) DeleteProject(ctx context.Context, proj *Project) error {
	if proj == nil || strings.TrimSpace(proj.FileName) == "" {
		return ErrInvalidInput
	}

	reply, err := s.remote.Fire(ctx, remote.DeleteProject, proj.FileName)
	if err != nil {
		return fmt.Errorf("deleting project %q: %w", proj.FileName, err)
	}
	var deleted bool
	if _, err := decodeReply(remote.DeleteProject, reply, &deleted); err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: platform refused to delete %q", ErrDeletion, proj.FileName)
	}

	s.record(ctx, &activity.ActivityEntry{
		ActivityType: activity.TypeProjectDeleted,
		Subject:      proj.FileName,
		Summary:      "deleted",
	})
	return nil
}

func (s *Service) record(ctx context.Context, entry *activity.ActivityEntry) {
	if s.activity == nil {
		return
	}
	if err := s.activity.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("recording activity", "type", entry.ActivityType, "subject", entry.Subject, "error", err)
	}
}

// decodeReply unmarshals reply into v. It reports false for a null reply.
func decodeReply(event string, reply json.RawMessage, v any) (bool, error) {
	if remote.IsNull(reply) {
		return false, nil
	}
	if err := json.Unmarshal(reply, v); err != nil {
		return false, fmt.Errorf("decoding %s reply: %w", event, err)
	}
	return true, nil
}

// saveFailure returns the error text carried by a SAVE_PROJECT_INIT reply, or
// nil when the save succeeded.
func saveFailure(reply json.RawMessage) error {
	if remote.IsNull(reply) {
		return nil
	}
	var msg string
	if err := json.Unmarshal(reply, &msg); err != nil {
		return fmt.Errorf("unexpected reply %s", reply)
	}
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}
