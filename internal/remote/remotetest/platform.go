// Package remotetest runs an in-process stand-in for the platform's event API
// and slot notification stream.
package remotetest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rpggio/tygron-connector/internal/remote"
	"github.com/stretchr/testify/require"
)

// Call is one event received by the platform.
type Call struct {
	Event       string
	SlotID      int
	Args        []json.RawMessage
	ServerToken string
	ClientToken string
	RequestID   string
}

// ServiceHandler answers a service event. A nil reply is sent as an empty body.
type ServiceHandler func(args []json.RawMessage) (reply any, status int)

// SlotHandler answers a slot event and may push notifications to the slot's
// stream after replying.
type SlotHandler func(slotID int, args []json.RawMessage) (reply any, push []remote.Notification)

// Platform is a fake platform server.
type Platform struct {
	server *httptest.Server

	mu       sync.Mutex
	services map[string]ServiceHandler
	slots    map[string]SlotHandler
	calls    []Call
	streams  map[int][]*stream
	tokens   map[int][2]string
}

type stream struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *stream) write(n remote.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(n)
}

func (s *stream) writeRaw(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// New starts a platform that answers unknown events with an empty 200 reply.
func New(t *testing.T) *Platform {
	t.Helper()

	p := &Platform{
		services: make(map[string]ServiceHandler),
		slots:    make(map[string]SlotHandler),
		streams:  make(map[int][]*stream),
		tokens:   make(map[int][2]string),
	}

	r := chi.NewRouter()
	r.Post("/api/services/event/IOServicesEventType/{event}/", p.handleService)
	r.Post("/api/slots/{slot}/event/{eventType}/{event}/", p.handleSlotEvent)
	r.Get("/api/slots/{slot}/stream", p.handleStream)

	p.server = httptest.NewServer(r)
	t.Cleanup(p.Close)
	return p
}

// URL returns the platform base address.
func (p *Platform) URL() string {
	return p.server.URL
}

// Close shuts down the server and drops open streams.
func (p *Platform) Close() {
	p.mu.Lock()
	for _, list := range p.streams {
		for _, s := range list {
			_ = s.conn.Close()
		}
	}
	p.streams = make(map[int][]*stream)
	p.mu.Unlock()
	p.server.Close()
}

// HandleService registers the reply for a service event.
func (p *Platform) HandleService(event string, h ServiceHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.services[event] = h
}

// Reply registers a fixed 200 reply for a service event.
func (p *Platform) Reply(event string, reply any) {
	p.HandleService(event, func([]json.RawMessage) (any, int) { return reply, http.StatusOK })
}

// HandleSlot registers the reply for a slot event, named with its event type
// (for example "EditorEventType/SET_INITIAL_MAP_SIZE").
func (p *Platform) HandleSlot(event string, h SlotHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[event] = h
}

// RequireTokens makes the slot stream reject connections without the given tokens.
func (p *Platform) RequireTokens(slotID int, serverToken, clientToken string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[slotID] = [2]string{serverToken, clientToken}
}

// Push sends a notification to every stream open on slotID.
func (p *Platform) Push(slotID int, n remote.Notification) {
	p.mu.Lock()
	list := append([]*stream(nil), p.streams[slotID]...)
	p.mu.Unlock()
	for _, s := range list {
		_ = s.write(n)
	}
}

// PushRaw sends an unvalidated text frame to every stream open on slotID.
func (p *Platform) PushRaw(slotID int, data []byte) {
	p.mu.Lock()
	list := append([]*stream(nil), p.streams[slotID]...)
	p.mu.Unlock()
	for _, s := range list {
		_ = s.writeRaw(data)
	}
}

// Streams returns the number of streams currently open on slotID.
func (p *Platform) Streams(slotID int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.streams[slotID])
}

// Calls returns the received calls for event, in arrival order. An empty
// event returns all calls.
func (p *Platform) Calls(event string) []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Call
	for _, c := range p.calls {
		if event == "" || c.Event == event {
			out = append(out, c)
		}
	}
	return out
}

// Events returns the names of all received events in arrival order.
func (p *Platform) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.calls))
	for _, c := range p.calls {
		out = append(out, c.Event)
	}
	return out
}

func (p *Platform) handleService(w http.ResponseWriter, r *http.Request) {
	event := chi.URLParam(r, "event")
	args := p.readArgs(w, r)
	if args == nil {
		return
	}
	p.record(Call{Event: event, SlotID: -1, Args: args, RequestID: r.Header.Get(remote.RequestIDHeader)})

	p.mu.Lock()
	h := p.services[event]
	p.mu.Unlock()
	if h == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	reply, status := h(args)
	if status == 0 {
		status = http.StatusOK
	}
	p.writeReply(w, status, reply)
}

func (p *Platform) handleSlotEvent(w http.ResponseWriter, r *http.Request) {
	slotID, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		http.Error(w, "bad slot", http.StatusBadRequest)
		return
	}
	event := chi.URLParam(r, "eventType") + "/" + chi.URLParam(r, "event")
	args := p.readArgs(w, r)
	if args == nil {
		return
	}
	serverToken := r.Header.Get(remote.ServerTokenHeader)
	clientToken := r.Header.Get(remote.ClientTokenHeader)
	if !p.authorized(slotID, serverToken, clientToken) {
		http.Error(w, "bad tokens", http.StatusUnauthorized)
		return
	}
	p.record(Call{
		Event:       event,
		SlotID:      slotID,
		Args:        args,
		ServerToken: serverToken,
		ClientToken: clientToken,
		RequestID:   r.Header.Get(remote.RequestIDHeader),
	})

	p.mu.Lock()
	h := p.slots[event]
	p.mu.Unlock()
	if h == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	reply, push := h(slotID, args)
	p.writeReply(w, http.StatusOK, reply)
	if len(push) == 0 {
		return
	}
	// The client may fire events before the server side of its stream is registered.
	deadline := time.Now().Add(2 * time.Second)
	for p.Streams(slotID) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	for _, n := range push {
		p.Push(slotID, n)
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func (p *Platform) handleStream(w http.ResponseWriter, r *http.Request) {
	slotID, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		http.Error(w, "bad slot", http.StatusBadRequest)
		return
	}
	if !p.authorized(slotID, r.Header.Get(remote.ServerTokenHeader), r.Header.Get(remote.ClientTokenHeader)) {
		http.Error(w, "bad tokens", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s := &stream{conn: conn}
	p.mu.Lock()
	p.streams[slotID] = append(p.streams[slotID], s)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		list := p.streams[slotID]
		for i, other := range list {
			if other == s {
				p.streams[slotID] = append(list[:i], list[i+1:]...)
				break
			}
		}
		p.mu.Unlock()
		_ = conn.Close()
	}()

	// Drain until the client goes away; gorilla answers close frames itself.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (p *Platform) authorized(slotID int, serverToken, clientToken string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	want, ok := p.tokens[slotID]
	if !ok {
		return true
	}
	return want[0] == serverToken && want[1] == clientToken
}

func (p *Platform) readArgs(w http.ResponseWriter, r *http.Request) []json.RawMessage {
	if r.URL.Query().Get("f") != "JSON" {
		http.Error(w, "missing format", http.StatusBadRequest)
		return nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	args := []json.RawMessage{}
	if strings.TrimSpace(string(body)) != "" {
		if err := json.Unmarshal(body, &args); err != nil {
			http.Error(w, "arguments must be a JSON array", http.StatusBadRequest)
			return nil
		}
	}
	return args
}

func (p *Platform) record(c Call) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
}

func (p *Platform) writeReply(w http.ResponseWriter, status int, reply any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if reply == nil {
		return
	}
	if raw, ok := reply.(json.RawMessage); ok {
		_, _ = w.Write(raw)
		return
	}
	_ = json.NewEncoder(w).Encode(reply)
}

// Arg decodes argument i of a call into v.
func Arg[T any](t *testing.T, c Call, i int) T {
	t.Helper()
	require.Greater(t, len(c.Args), i, "call %s has %d args", c.Event, len(c.Args))
	var v T
	require.NoError(t, json.Unmarshal(c.Args[i], &v))
	return v
}
