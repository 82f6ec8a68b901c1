package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/rpggio/tygron-connector/internal/obs"
)

// Token headers authenticating a slot connection.
const (
	ServerTokenHeader = "serverToken"
	ClientTokenHeader = "clientToken"
)

const closeGrace = 2 * time.Second

var errConnectionClosed = errors.New("slot connection closed")

// SlotConfig identifies an authenticated connection to a running slot.
type SlotConfig struct {
	AppType     string
	ServerAddr  string
	SlotID      int
	ServerToken string
	ClientToken string
}

// Notification is a push update emitted by a slot.
type Notification struct {
	MapLink string          `json:"mapLink"`
	Enum    string          `json:"enum,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
	Items   json.RawMessage `json:"items,omitempty"`
}

// IntValue decodes the notification value as an integer.
func (n Notification) IntValue() (int, error) {
	var v int
	if err := json.Unmarshal(n.Value, &v); err != nil {
		return 0, fmt.Errorf("decoding %s/%s value: %w", n.MapLink, n.Enum, err)
	}
	return v, nil
}

// Dialer opens slot connections.
type Dialer struct {
	client  *Client
	ws      *websocket.Dialer
	retries uint
	logger  *slog.Logger
}

// DialerOption configures a Dialer.
type DialerOption func(d *Dialer)

// WithDialRetries sets how many times a failed stream handshake is retried
// within one connect attempt.
func WithDialRetries(n uint) DialerOption {
	return func(d *Dialer) { d.retries = n }
}

// WithWebsocketDialer replaces the websocket dialer.
func WithWebsocketDialer(ws *websocket.Dialer) DialerOption {
	return func(d *Dialer) {
		if ws != nil {
			d.ws = ws
		}
	}
}

// NewDialer creates a dialer that fires slot events through client.
func NewDialer(client *Client, opts ...DialerOption) *Dialer {
	d := &Dialer{
		client: client,
		ws:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger: client.logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Connect opens the notification stream of a slot. The returned connection is
// owned by the caller until Disconnect.
func (d *Dialer) Connect(ctx context.Context, cfg SlotConfig) (*SlotConnection, error) {
	base, err := parseBase(cfg.ServerAddr)
	if err != nil {
		return nil, err
	}
	header := tokenHeader(cfg)
	streamURL := slotStreamURL(base, cfg.SlotID)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	conn, err := backoff.Retry(ctx, func() (*websocket.Conn, error) {
		conn, resp, err := d.ws.DialContext(ctx, streamURL, header)
		if err == nil {
			return conn, nil
		}
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, backoff.Permanent(fmt.Errorf("slot %d rejected tokens: %s", cfg.SlotID, resp.Status))
		}
		d.logger.Debug("slot stream dial failed", "slot", cfg.SlotID, "error", err)
		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(d.retries+1))
	if err != nil {
		return nil, fmt.Errorf("connecting slot %d: %w", cfg.SlotID, err)
	}

	sc := &SlotConnection{
		cfg:    cfg,
		base:   base,
		client: d.client,
		conn:   conn,
		logger: d.logger,
		subs:   make(map[int]*subscription),
		done:   make(chan struct{}),
	}
	obs.ActiveSlotConnections.Inc()
	go sc.readLoop()
	d.logger.Info("slot connected", "slot", cfg.SlotID, "app", cfg.AppType)
	return sc, nil
}

type subscription struct {
	link string
	enum string
	ch   chan Notification
}

// SlotConnection is an authenticated channel to one slot: events go out over
// HTTP, notifications arrive over the stream and fan out to subscribers.
type SlotConnection struct {
	cfg    SlotConfig
	base   *url.URL
	client *Client
	conn   *websocket.Conn
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
	closed bool

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// SlotID returns the slot the connection is bound to.
func (s *SlotConnection) SlotID() int {
	return s.cfg.SlotID
}

// Fire sends an event to the slot, authenticated with the connection tokens.
func (s *SlotConnection) Fire(ctx context.Context, event string, args ...any) (json.RawMessage, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("firing %s: %w", event, errConnectionClosed)
	}
	return s.client.post(ctx, "slot", event, slotEventURL(s.base, s.cfg.SlotID, event), tokenHeader(s.cfg), args)
}

// Subscribe registers interest in notifications for a map link, narrowed to
// one enum when enum is non-empty. The channel holds at most one pending
// notification; later ones are dropped until it is drained. The returned
// func cancels the subscription.
func (s *SlotConnection) Subscribe(link, enum string) (<-chan Notification, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	sub := &subscription{link: link, enum: enum, ch: make(chan Notification, 1)}
	s.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Disconnect closes the stream. It is safe to call more than once; only the
// first call does any work.
func (s *SlotConnection) Disconnect(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "disconnect")
		writeErr := s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		s.writeMu.Unlock()

		select {
		case <-s.done:
		case <-ctx.Done():
		case <-time.After(closeGrace):
		}
		closeErr := s.conn.Close()
		<-s.done

		obs.ActiveSlotConnections.Dec()
		if writeErr != nil {
			s.logger.Debug("slot close frame not sent", "slot", s.cfg.SlotID, "error", writeErr)
		}
		if closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			s.closeErr = fmt.Errorf("closing slot %d: %w", s.cfg.SlotID, closeErr)
		}
		s.logger.Info("slot disconnected", "slot", s.cfg.SlotID)
	})
	return s.closeErr
}

func (s *SlotConnection) readLoop() {
	defer close(s.done)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !s.isClosed() {
				s.logger.Warn("slot stream ended", "slot", s.cfg.SlotID, "error", err)
			}
			return
		}
		var n Notification
		if err := json.Unmarshal(data, &n); err != nil {
			s.logger.Warn("dropping malformed notification", "slot", s.cfg.SlotID, "error", err)
			continue
		}
		obs.SlotNotificationsTotal.WithLabelValues(n.MapLink).Inc()
		s.dispatch(n)
	}
}

func (s *SlotConnection) dispatch(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.link != n.MapLink {
			continue
		}
		if sub.enum != "" && sub.enum != n.Enum {
			continue
		}
		select {
		case sub.ch <- n:
		default:
		}
	}
}

func (s *SlotConnection) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func tokenHeader(cfg SlotConfig) http.Header {
	h := http.Header{}
	h.Set(ServerTokenHeader, cfg.ServerToken)
	h.Set(ClientTokenHeader, cfg.ClientToken)
	return h
}
