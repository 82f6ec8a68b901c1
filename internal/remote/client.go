package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/tygron-connector/internal/obs"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "X-Request-ID"

const (
	apiPrefix          = "api"
	serviceEventType   = "IOServicesEventType"
	maxReplyBytes      = 16 << 20
	defaultCallTimeout = 30 * time.Second
)

var nullReply = json.RawMessage("null")

// Client fires named events at the platform and returns their raw JSON replies.
// Calls are synchronous; transport faults are returned as-is, wrapped with the event name.
type Client struct {
	base     *url.URL
	username string
	password string
	http     *http.Client
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(c *Client)

// WithCredentials sets the basic-auth credentials sent with every call.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-call timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the platform at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBase(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		base:   base,
		http:   &http.Client{Timeout: defaultCallTimeout},
		logger: slog.New(slog.DiscardHandler),
		tracer: otel.Tracer("github.com/rpggio/tygron-connector/internal/remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the platform address the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Fire sends a service event with the given arguments and returns the reply.
// An empty reply body is reported as JSON null.
func (c *Client) Fire(ctx context.Context, event string, args ...any) (json.RawMessage, error) {
	endpoint := eventURL(c.base, "services", "event", serviceEventType, event)
	return c.post(ctx, "service", event, endpoint, nil, args)
}

func (c *Client) post(ctx context.Context, kind, event, endpoint string, header http.Header, args []any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding %s arguments: %w", event, err)
	}

	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "remote."+kind, trace.WithAttributes(
		attribute.String("tygron.event", event),
		attribute.String("tygron.request_id", requestID),
	))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", event, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.http.Do(req)
	obs.RemoteCallSeconds.WithLabelValues(kind, event).Observe(time.Since(start).Seconds())
	if err != nil {
		obs.RemoteCallsTotal.WithLabelValues(kind, event, obs.OutcomeNetError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return nil, fmt.Errorf("firing %s: %w", event, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		obs.RemoteCallsTotal.WithLabelValues(kind, event, obs.OutcomeNetError).Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("reading %s reply: %w", event, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		obs.RemoteCallsTotal.WithLabelValues(kind, event, obs.OutcomeStatusError).Inc()
		span.SetStatus(codes.Error, resp.Status)
		return nil, &StatusError{Event: event, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	obs.RemoteCallsTotal.WithLabelValues(kind, event, obs.OutcomeOK).Inc()

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		data = nullReply
	}
	c.logger.Debug("remote event", "kind", kind, "event", event, "request_id", requestID, "status", resp.StatusCode, "bytes", len(data))
	return json.RawMessage(data), nil
}

// IsNull reports whether a reply is absent or JSON null.
func IsNull(reply json.RawMessage) bool {
	trimmed := bytes.TrimSpace(reply)
	return len(trimmed) == 0 || bytes.Equal(trimmed, nullReply)
}

func parseBase(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty server address", ErrInvalidConfig)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidConfig, raw)
	}
	return u, nil
}

// eventURL builds {base}/api/<elems...>/ with the JSON format selector.
func eventURL(base *url.URL, elems ...string) string {
	parts := append([]string{apiPrefix}, elems...)
	parts[len(parts)-1] += "/"
	u := base.JoinPath(parts...)
	u.RawQuery = url.Values{"f": []string{"JSON"}}.Encode()
	return u.String()
}

func slotEventURL(base *url.URL, slotID int, event string) string {
	return eventURL(base, "slots", strconv.Itoa(slotID), "event", event)
}

func slotStreamURL(base *url.URL, slotID int) string {
	u := base.JoinPath(apiPrefix, "slots", strconv.Itoa(slotID), "stream")
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String()
}
