package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/reimbursement/pkg/model"
	"github.com/expenseflow/reimbursement/pkg/route"
	"github.com/expenseflow/reimbursement/pkg/session"
)

func loggedIn(t *testing.T) *session.MemoryStore {
	t.Helper()
	s := session.NewMemoryStore()
	require.NoError(t, s.Set(model.Session{
		Token:    "tok-123",
		Identity: &model.Identity{ID: "u1", Role: model.RoleEmployee},
	}))
	return s
}

type recordingNavigator struct {
	calls []route.Path
}

func (r *recordingNavigator) Navigate(to route.Path) { r.calls = append(r.calls, to) }

func TestClient_AttachesBearerAndRequestID(t *testing.T) {
	var auth, reqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get(HeaderRequestID)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, loggedIn(t))
	var out struct{ OK bool }
	require.NoError(t, c.Get(context.Background(), "/ping", &out, "fallback"))

	assert.True(t, out.OK)
	assert.Equal(t, "Bearer tok-123", auth)
	assert.Len(t, reqID, 36)
}

func TestClient_NoSessionSendsUnauthenticated(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, session.NewMemoryStore())
	require.NoError(t, c.Post(context.Background(), "/auth/login", map[string]string{"email": "a"}, nil, "Login failed"))
	assert.Empty(t, auth)
}

func TestClient_UnauthorizedClearsSessionOnceAndNavigates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer srv.Close()

	store := &countingStore{Store: loggedIn(t)}
	nav := &recordingNavigator{}
	c := New(srv.URL, store, WithNavigator(nav))

	var notified int32
	c.OnAuthFailure(func() { atomic.AddInt32(&notified, 1) })

	err := c.Get(context.Background(), "/reimbursements", nil, "Failed to fetch")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	assert.Equal(t, 1, store.clears, "session cleared exactly once")
	assert.Equal(t, []route.Path{route.Login}, nav.calls)
	assert.EqualValues(t, 1, atomic.LoadInt32(&notified))

	s, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestClient_CustomPolicyRunsBeforeReturn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	policy := &countingPolicy{}
	c := New(srv.URL, loggedIn(t), WithAuthFailurePolicy(policy))

	err := c.Get(context.Background(), "/x", nil, "Failed")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 1, policy.calls)
}

func TestClient_ServerMessageAndFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/with-message":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"title is required"}`))
		case "/laravel-style":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"This action is unauthorized."}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`<html>oops</html>`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, loggedIn(t))
	ctx := context.Background()

	err := c.Post(ctx, "/with-message", struct{}{}, nil, "Failed to create reimbursement")
	var ae *Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "title is required", ae.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, ae.StatusCode)

	err = c.Get(ctx, "/laravel-style", nil, "Failed")
	assert.EqualError(t, err, "This action is unauthorized.")
	assert.True(t, IsForbidden(err))

	err = c.Get(ctx, "/broken", nil, "Failed to fetch users")
	assert.EqualError(t, err, "Failed to fetch users")
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestClient_TransportFailureUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, loggedIn(t))
	err := c.Get(context.Background(), "/reimbursements", nil, "Failed to fetch reimbursements")

	var ae *Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 0, ae.StatusCode)
	assert.Equal(t, "Failed to fetch reimbursements", ae.Message)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reimbursements": [`))
	}))
	defer srv.Close()

	c := New(srv.URL, loggedIn(t))
	var out map[string]any
	err := c.Get(context.Background(), "/reimbursements", &out, "Failed")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	var ae *Error
	assert.False(t, errors.As(err, &ae), "malformed bodies are not expected failures")
}

func TestSessionResetPolicy_NilNavigator(t *testing.T) {
	store := loggedIn(t)
	p := &SessionResetPolicy{Store: store}
	p.HandleAuthFailure(context.Background())

	s, err := store.Get()
	require.NoError(t, err)
	assert.Nil(t, s)
}

type countingStore struct {
	session.Store
	clears int
}

func (c *countingStore) Clear() error {
	c.clears++
	return c.Store.Clear()
}

type countingPolicy struct {
	calls int
}

func (p *countingPolicy) HandleAuthFailure(context.Context) {
	p.calls++
}
