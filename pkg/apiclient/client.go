// Package apiclient is the single chokepoint for requests to the
// reimbursement API. It attaches the session's bearer token, runs the
// auth-failure policy on every 401 and turns other failures into *Error
// values carrying the server's message or a per-operation fallback.
//
// Usage:
//
//	store := session.NewFileStore(path)
//	client := apiclient.New("http://localhost:8585/api/v1", store,
//	    apiclient.WithNavigator(nav),
//	)
//	var out struct{ Users []model.Identity `json:"users"` }
//	err := client.Get(ctx, "/users", &out, "Failed to fetch users")
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/expenseflow/reimbursement/pkg/session"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "reimburse-client/1.0"
	maxErrorBody     = 64 << 10
)

// HeaderRequestID correlates a client request with server logs.
const HeaderRequestID = "X-Request-ID"

// Client talks to the API. It is safe for concurrent use.
type Client struct {
	baseURL   string
	store     session.Store
	http      *http.Client
	policy    AuthFailurePolicy
	navigator Navigator
	log       zerolog.Logger
	userAgent string

	mu        sync.Mutex
	listeners []func()
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithNavigator sets where the default SessionResetPolicy sends the user.
func WithNavigator(nav Navigator) Option {
	return func(c *Client) { c.navigator = nav }
}

// WithAuthFailurePolicy replaces the default SessionResetPolicy.
func WithAuthFailurePolicy(p AuthFailurePolicy) Option {
	return func(c *Client) { c.policy = p }
}

// New returns a client for baseURL, e.g. http://localhost:8585/api/v1.
func New(baseURL string, store session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		store:     store,
		http:      &http.Client{Timeout: defaultTimeout},
		log:       zerolog.Nop(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy == nil {
		c.policy = &SessionResetPolicy{Store: store, Navigator: c.navigator, Log: c.log}
	}
	return c
}

// Store returns the session store the client reads tokens from.
func (c *Client) Store() session.Store {
	return c.store
}

// OnAuthFailure registers fn to run after the policy handled a 401.
func (c *Client) OnAuthFailure(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Client) Get(ctx context.Context, path string, out any, fallback string) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, fallback)
}

func (c *Client) Post(ctx context.Context, path string, in, out any, fallback string) error {
	return c.Do(ctx, http.MethodPost, path, in, out, fallback)
}

func (c *Client) Put(ctx context.Context, path string, in, out any, fallback string) error {
	return c.Do(ctx, http.MethodPut, path, in, out, fallback)
}

func (c *Client) Delete(ctx context.Context, path string, out any, fallback string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, fallback)
}

// PostWithToken is Post authenticated with token instead of the stored
// session. Logout uses it after the store has already been cleared.
func (c *Client) PostWithToken(ctx context.Context, token, path string, in, out any, fallback string) error {
	return c.do(ctx, http.MethodPost, path, in, out, fallback, token)
}

// Do sends one request. in is encoded as JSON when non-nil; a 2xx body is
// decoded into out when out is non-nil. There are no retries.
func (c *Client) Do(ctx context.Context, method, path string, in, out any, fallback string) error {
	return c.do(ctx, method, path, in, out, fallback, "")
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, fallback, token string) error {
	op := method + " " + path

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("apiclient: build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)

	if token == "" {
		s, err := c.store.Get()
		if err != nil {
			return fmt.Errorf("apiclient: read session: %w", err)
		}
		if s.Valid() {
			token = s.Token
		}
	}
	if token != "" {
		tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
		tok.SetAuthHeader(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Str("request_id", requestID).Msg("transport failure")
		return &Error{Op: op, Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("op", op).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api call")

	if resp.StatusCode == http.StatusUnauthorized {
		msg := serverMessage(resp.Body, fallback)
		c.handleAuthFailure(ctx)
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: msg, Err: ErrUnauthenticated}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: serverMessage(resp.Body, fallback)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, op, err)
	}
	return nil
}

func (c *Client) handleAuthFailure(ctx context.Context) {
	c.policy.HandleAuthFailure(ctx)

	c.mu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// serverMessage extracts {"error": "..."} or {"message": "..."} from an error
// body, falling back when neither is present.
func serverMessage(r io.Reader, fallback string) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || json.Unmarshal(raw, &envelope) != nil {
		return fallback
	}
	switch {
	case strings.TrimSpace(envelope.Error) != "":
		return envelope.Error
	case strings.TrimSpace(envelope.Message) != "":
		return envelope.Message
	}
	return fallback
}
