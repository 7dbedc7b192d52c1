package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"miso/internal/platform/id"
	"miso/internal/platform/logging"
)

const maxResponseBytes = 4 << 20

// SessionExpirer is told when the backend refuses to refresh the session. It
// is expected to drop the cached user and send the user to sign-in.
type SessionExpirer interface {
	Expire(ctx context.Context, reason string)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	jar        http.CookieJar
	session    SessionExpirer
	ids        id.Generator
	timeout    time.Duration
	log        zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Jar carries the session
// cookies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCookieJar sets the jar on the HTTP client in use after every option
// has run, whatever their order.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) { c.jar = jar }
}

func WithSessionExpirer(s SessionExpirer) Option {
	return func(c *Client) { c.session = s }
}

// WithRequestTimeout bounds each individual HTTP exchange. Zero means the
// request lives as long as its context.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithIDGenerator(g id.Generator) Option {
	return func(c *Client) { c.ids = g }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		ids:        id.UUID{},
		log:        logging.Module("apiclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.jar != nil {
		c.httpClient.Jar = c.jar
	}
	return c
}

type request struct {
	method        string
	path          string
	query         url.Values
	body          any
	authenticated bool
}

type attempt int

const (
	firstAttempt attempt = iota
	retriedAttempt
)

// retryPolicy allows a single refresh-and-retry per logical request. After
// the retry, a 401 is final.
type retryPolicy struct {
	state attempt
}

func (p *retryPolicy) shouldRefresh(status int, authenticated bool) bool {
	return authenticated && status == http.StatusUnauthorized && p.state == firstAttempt
}

func (p *retryPolicy) advance() { p.state = retriedAttempt }

func send[T any](ctx context.Context, c *Client, req request) Result[T] {
	policy := retryPolicy{}
	for {
		status, body, err := c.roundTrip(ctx, req, policy.state)
		if err != nil {
			return transportFailure[T](err)
		}
		if policy.shouldRefresh(status, req.authenticated) {
			refreshed, err := c.refresh(ctx)
			if err != nil {
				return transportFailure[T](err)
			}
			if !refreshed {
				if c.session != nil {
					c.session.Expire(ctx, "session expired, please sign in again")
				}
				return failure[T](string(body), http.StatusUnauthorized)
			}
			policy.advance()
			continue
		}
		if status < 200 || status > 299 {
			return failure[T](string(body), status)
		}
		var data T
		if len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, &data); err != nil {
				return failure[T](fmt.Sprintf("decode response: %v", err), status)
			}
		}
		return success(data, status)
	}
}

// refresh reports false when the backend answered but refused the refresh.
func (c *Client) refresh(ctx context.Context) (bool, error) {
	status, _, err := c.roundTrip(ctx, request{method: http.MethodPost, path: "/auth/refresh"}, firstAttempt)
	if err != nil {
		return false, err
	}
	return status >= 200 && status <= 299, nil
}

func (c *Client) roundTrip(ctx context.Context, req request, state attempt) (int, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}
	var payload io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	requestID := c.ids.New()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Debug().Err(err).Str("method", req.method).Str("path", req.path).Str("request_id", requestID).Msg("request failed")
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	c.log.Debug().
		Str("method", req.method).
		Str("path", req.path).
		Int("status", resp.StatusCode).
		Bool("retried", state == retriedAttempt).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(started)).
		Msg("request")
	return resp.StatusCode, body, nil
}
