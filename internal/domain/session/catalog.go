package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/tygron-connector/internal/domain/activity"
	"github.com/rpggio/tygron-connector/internal/remote"
	"github.com/tidwall/gjson"
)

// DefaultAgentName identifies this client when joining sessions.
const DefaultAgentName = "Tygron-API-Agent"

// Catalog lists, joins, creates and kills sessions on the platform.
type Catalog struct {
	remote    ServiceClient
	validator ReplyValidator
	agentName string
	activity  ActivityLogger
	logger    *slog.Logger
}

// Option configures a Catalog.
type Option func(c *Catalog)

// WithValidator replaces the default LenientValidator.
func WithValidator(v ReplyValidator) Option {
	return func(c *Catalog) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithAgentName sets the client name sent when joining.
func WithAgentName(name string) Option {
	return func(c *Catalog) {
		if name != "" {
			c.agentName = name
		}
	}
}

// WithActivityLog records joins, creations and kills to log.
func WithActivityLog(log ActivityLogger) Option {
	return func(c *Catalog) { c.activity = log }
}

// NewCatalog creates a catalog that talks to the platform through remoteClient.
func NewCatalog(remoteClient ServiceClient, logger *slog.Logger, opts ...Option) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Catalog{
		remote:    remoteClient,
		validator: LenientValidator{},
		agentName: DefaultAgentName,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListJoinable returns a snapshot of the sessions that can currently be joined.
func (c *Catalog) ListJoinable(ctx context.Context) ([]Session, error) {
	reply, err := c.remote.Fire(ctx, remote.GetJoinableSessions)
	if err != nil {
		return nil, fmt.Errorf("listing joinable sessions: %w", err)
	}

	rows := gjson.ParseBytes(reply)
	if rows.Type == gjson.Null {
		return []Session{}, nil
	}
	if !rows.IsArray() {
		return nil, fmt.Errorf("decoding %s reply: expected array, got %s", remote.GetJoinableSessions, rows.Type)
	}

	sessions := make([]Session, 0, len(rows.Array()))
	for _, row := range rows.Array() {
		if !row.IsObject() {
			c.logger.Warn("skipping malformed session row", "row", row.Raw)
			continue
		}
		sess := Session{
			Name: row.Get("name").String(),
			Type: row.Get("sessionType").String(),
			// The listing has no language column; the platform's session type is reused.
			Language: row.Get("sessionType").String(),
			remote:   c.remote,
		}
		if id := row.Get("id"); id.Type == gjson.Number {
			v := int(id.Int())
			sess.ID = &v
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Join joins slotID as a viewer and stores the issued tokens on sess.
func (c *Catalog) Join(ctx context.Context, sess *Session, slotID int) (bool, error) {
	if sess == nil {
		return false, ErrInvalidInput
	}

	reply, err := c.remote.Fire(ctx, remote.JoinSession, slotID, remote.AppViewer, "", c.agentName, "")
	if err != nil {
		return false, fmt.Errorf("joining session %d: %w", slotID, err)
	}
	result := gjson.ParseBytes(reply)
	if err := c.validator.Validate(OpJoin, result); err != nil {
		return false, fmt.Errorf("joining session %d: %w", slotID, err)
	}

	sess.ClientToken = result.Get("sessionClientToken").String()
	sess.ServerToken = result.Get("serverToken").String()
	if sess.remote == nil {
		sess.remote = c.remote
	}

	c.record(ctx, activity.TypeSessionJoined, sess.Name, slotID, "joined as viewer")
	return true, nil
}

// CreateOrJoin returns the joinable session named mapName. When there is none,
// it returns an empty session bound to the catalog's client; no session is
// started.
func (c *Catalog) CreateOrJoin(ctx context.Context, mapName string) (*Session, error) {
	sessions, err := c.ListJoinable(ctx)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Name == mapName {
			return &sessions[i], nil
		}
	}
	c.logger.Info("no joinable session for map", "map", mapName)
	return &Session{remote: c.remote}, nil
}

// Create starts a multi-player session on mapName. The platform's reply does
// not identify the new session, so UnknownSessionID is returned on success.
func (c *Catalog) Create(ctx context.Context, mapName string) (int, error) {
	if mapName == "" {
		return UnknownSessionID, ErrInvalidInput
	}

	reply, err := c.remote.Fire(ctx, remote.StartNewSession, remote.SessionMultiPlayer, mapName)
	if err != nil {
		return UnknownSessionID, fmt.Errorf("creating session on %q: %w", mapName, err)
	}
	result := gjson.ParseBytes(reply)
	if err := c.validator.Validate(OpCreate, result); err != nil {
		return UnknownSessionID, fmt.Errorf("creating session on %q: %w", mapName, err)
	}

	c.logger.Info("session creation requested", "map", mapName, "reply", result.Raw)
	c.record(ctx, activity.TypeSessionCreated, mapName, UnknownSessionID, "requested multi-player session")
	return UnknownSessionID, nil
}

// Kill stops the session running in slotID.
func (c *Catalog) Kill(ctx context.Context, slotID int) (bool, error) {
	reply, err := c.remote.Fire(ctx, remote.KillSession, slotID)
	if err != nil {
		return false, fmt.Errorf("killing session %d: %w", slotID, err)
	}
	result := gjson.ParseBytes(reply)
	if err := c.validator.Validate(OpKill, result); err != nil {
		return false, fmt.Errorf("killing session %d: %w", slotID, err)
	}

	c.logger.Info("session killed", "slot", slotID, "reply", result.Raw)
	c.record(ctx, activity.TypeSessionKilled, fmt.Sprintf("slot %d", slotID), slotID, "killed")
	return true, nil
}

func (c *Catalog) record(ctx context.Context, typ activity.ActivityType, subject string, slotID int, summary string) {
	if c.activity == nil {
		return
	}
	if subject == "" {
		subject = fmt.Sprintf("slot %d", slotID)
	}
	entry := &activity.ActivityEntry{ActivityType: typ, Subject: subject, Summary: summary}
	if slotID != UnknownSessionID {
		entry.SlotID = &slotID
	}
	if err := c.activity.LogActivity(ctx, entry); err != nil {
		c.logger.Warn("recording activity", "type", typ, "subject", subject, "error", err)
	}
}
