// Package auth manages the client's login state on top of a session store
// and the API gateway.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/expenseflow/reimbursement/pkg/apiclient"
	"github.com/expenseflow/reimbursement/pkg/model"
	"github.com/expenseflow/reimbursement/pkg/session"
)

const (
	loginFallback    = "Login failed"
	registerFallback = "Registration failed"
	logoutFallback   = "Logout failed"
)

// Credentials are submitted by Login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is submitted by Register. Role is optional; the server defaults
// it to employee.
type Profile struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role,omitempty"`
}

// LoginResult is the identity and token the server issued.
type LoginResult struct {
	Identity *model.Identity
	Token    string
}

type loginResponse struct {
	Token string          `json:"token"`
	User  *model.Identity `json:"user"`
}

type registerResponse struct {
	User *model.Identity `json:"user"`
}

// Manager owns the session lifecycle: Init reads the store once, Login and
// Logout write it, and a 401 anywhere drops it through the gateway policy.
type Manager struct {
	client *apiclient.Client
	store  session.Store
	log    zerolog.Logger

	mu    sync.RWMutex
	state State
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager returns a manager in the loading state. Call Init before
// consulting it for access decisions.
func NewManager(client *apiclient.Client, opts ...Option) *Manager {
	m := &Manager{
		client: client,
		store:  client.Store(),
		log:    zerolog.Nop(),
		state:  State{Loading: true},
	}
	for _, opt := range opts {
		opt(m)
	}
	client.OnAuthFailure(m.dropSession)
	return m
}

// Init reads the session store once and ends the loading state.
func (m *Manager) Init(context.Context) error {
	s, err := m.store.Get()
	if err != nil {
		m.setState(State{})
		return fmt.Errorf("auth: init: %w", err)
	}
	m.setState(State{Session: s})
	return nil
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Login authenticates and persists the session. A failed login leaves the
// store as it was apart from what the auth-failure policy does on a 401.
func (m *Manager) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	var resp loginResponse
	if err := m.client.Post(ctx, "/auth/login", creds, &resp, loginFallback); err != nil {
		return LoginResult{}, err
	}
	s := model.Session{Token: resp.Token, Identity: resp.User}
	if !s.Valid() {
		return LoginResult{}, fmt.Errorf("%w: login response without token or user", apiclient.ErrMalformedResponse)
	}
	if err := m.store.Set(s); err != nil {
		return LoginResult{}, fmt.Errorf("auth: persist session: %w", err)
	}
	m.setState(State{Session: &s})

	m.log.Info().Str("user_id", s.Identity.ID).Str("role", string(s.Identity.Role)).Msg("logged in")
	return LoginResult{Identity: s.Identity, Token: s.Token}, nil
}

// Register creates an account. It never logs the new identity in.
func (m *Manager) Register(ctx context.Context, p Profile) (*model.Identity, error) {
	var resp registerResponse
	if err := m.client.Post(ctx, "/auth/register", p, &resp, registerFallback); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout clears the session locally, then tells the server on a best-effort
// basis. It only fails when the local store cannot be cleared.
func (m *Manager) Logout(ctx context.Context) error {
	prev, _ := m.store.Get()
	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("auth: clear session: %w", err)
	}
	m.setState(State{})

	if prev.Valid() {
		if err := m.client.PostWithToken(ctx, prev.Token, "/auth/logout", nil, nil, logoutFallback); err != nil {
			m.log.Warn().Err(err).Msg("server logout failed")
		}
	}
	return nil
}

func (m *Manager) dropSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Session != nil {
		m.log.Info().Msg("session dropped after authentication failure")
	}
	m.state = State{Loading: m.state.Loading}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}
