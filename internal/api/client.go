// Package api is a thin HTTP client for the Kanban backend. It attaches the
// bearer token and turns responses into typed errors; it never touches
// stored credentials itself.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "github.com/Makepad-fr/board/internal/api"
	maxErrorBody    = 64 << 10
	requestIDHeader = "X-Request-ID"
)

// TokenSource yields the current bearer token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Client talks to one backend. Safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	log    log.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout of the default http client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l log.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// New builds a client for baseURL, e.g. "http://127.0.0.1:8000/api/".
// tokens may be nil for unauthenticated use.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base url must be absolute: %q", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 15 * time.Second},
		tokens: tokens,
		log:    log.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string { return c.base.String() }

type request struct {
	method      string
	path        string // relative to the base URL, e.g. "boards/3/"
	query       url.Values
	body        io.Reader
	contentType string
}

// doJSON encodes in (when non-nil) and decodes the response into out (when
// non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req := request{method: method, path: path, query: query}
	if in != nil {
		b, err := sonic.ConfigStd.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		req.body = bytes.NewReader(b)
		req.contentType = "application/json"
	}
	return c.do(ctx, req, out)
}

func (c *Client) do(ctx context.Context, r request, out any) (err error) {
	target := c.base.ResolveReference(&url.URL{Path: r.path})
	if len(r.query) > 0 {
		target.RawQuery = r.query.Encode()
	}
	route := "/" + strings.TrimPrefix(r.path, "/")

	ctx, span := otel.Tracer(tracerName).Start(ctx, "api "+r.method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", r.method),
			attribute.String("http.route", route),
		))
	defer span.End()

	reqID := uuid.NewString()
	start := time.Now()
	status := 0
	defer func() {
		fields := log.Fields{
			"method":      r.method,
			"path":        route,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  reqID,
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.log.WithFields(fields).WithError(err).Warn("api request failed")
			return
		}
		c.log.WithFields(fields).Debug("api request")
	}()

	req, err := http.NewRequestWithContext(ctx, r.method, target.String(), r.body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: r.method, Path: route, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status < 200 || status > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return parseError(status, r.method, route, body)
	}
	if out == nil || status == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: r.method, Path: route, Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := sonic.ConfigStd.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.method, route, err)
	}
	return nil
}

func idPath(resource string, id int) string {
	return fmt.Sprintf("%s/%d/", resource, id)
}

func intQuery(key string, v int) url.Values {
	return url.Values{key: []string{fmt.Sprint(v)}}
}
