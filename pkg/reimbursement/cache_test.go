package reimbursement

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenseflow/reimbursement/internal/api/apitest"
	"github.com/expenseflow/reimbursement/pkg/apiclient"
	"github.com/expenseflow/reimbursement/pkg/auth"
	"github.com/expenseflow/reimbursement/pkg/model"
	"github.com/expenseflow/reimbursement/pkg/session"
)

func TestListCache_NotSharedAcrossIdentities(t *testing.T) {
	srv := apitest.NewServer(t)
	srv.SeedUser(t, "Ann", "a@example.com", "secret1", "employee")
	srv.SeedUser(t, "Ben", "b@example.com", "secret1", "admin")
	ctx := context.Background()

	api := apiclient.New(srv.URL, session.NewMemoryStore())
	mgr := auth.NewManager(api)
	require.NoError(t, mgr.Init(ctx))
	c := New(api)

	_, err := mgr.Login(ctx, auth.Credentials{Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = c.Create(ctx, CreateInput{Title: "A's taxi", Amount: "12"})
	require.NoError(t, err)
	mine, err := c.ListMine(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NoError(t, mgr.Logout(ctx))

	_, err = mgr.Login(ctx, auth.Credentials{Email: "b@example.com", Password: "secret1"})
	require.NoError(t, err)
	mine, err = c.ListMine(ctx)
	require.NoError(t, err)
	assert.Empty(t, mine)

	all, err := c.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListCache_SkipsWhenLoggedOut(t *testing.T) {
	srv := apitest.NewServer(t)
	emp := login(t, srv, "Emma", "emma@example.com", "employee")
	ctx := context.Background()

	_, err := emp.client.ListMine(ctx)
	require.NoError(t, err)
	require.NoError(t, emp.client.api.Store().Clear())

	_, err = emp.client.ListMine(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apiclient.ErrUnauthenticated)
}

// holdFirstPending answers the first pending-list request from a snapshot
// taken on arrival, but only writes it once release is closed.
func holdFirstPending(t *testing.T, srv *apitest.Server, served, release chan struct{}) string {
	t.Helper()
	var held atomic.Bool
	upstream := srv.HTTP.Config.Handler
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/reimbursements/pending") || !held.CompareAndSwap(false, true) {
			upstream.ServeHTTP(w, r)
			return
		}
		rec := httptest.NewRecorder()
		upstream.ServeHTTP(rec, r)
		close(served)
		<-release
		for k, v := range rec.Header() {
			w.Header()[k] = v
		}
		w.WriteHeader(rec.Code)
		_, _ = w.Write(rec.Body.Bytes())
	}))
	t.Cleanup(proxy.Close)
	return proxy.URL + strings.TrimPrefix(srv.URL, srv.HTTP.URL)
}

func TestListCache_StaleFetchAfterDecisionIsDropped(t *testing.T) {
	srv := apitest.NewServer(t)
	emp := login(t, srv, "Emma", "emma@example.com", "employee")
	u := srv.SeedUser(t, "Max", "max@example.com", "secret1", "manager")
	ctx := context.Background()

	r, err := emp.client.Create(ctx, CreateInput{Title: "Hotel", Amount: "80"})
	require.NoError(t, err)

	served, release := make(chan struct{}), make(chan struct{})
	store := session.NewMemoryStore()
	require.NoError(t, store.Set(model.Session{
		Token:    srv.Token(t, "max@example.com", "secret1"),
		Identity: &model.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: model.RoleManager},
	}))
	mgr := New(apiclient.New(holdFirstPending(t, srv, served, release), store))

	type listResult struct {
		items []model.Reimbursement
		err   error
	}
	done := make(chan listResult, 1)
	go func() {
		items, err := mgr.ListPending(ctx)
		done <- listResult{items, err}
	}()

	<-served
	_, err = mgr.Approve(ctx, r.ID, "ok")
	require.NoError(t, err)
	close(release)

	old := <-done
	require.NoError(t, old.err)
	assert.Len(t, old.items, 1)

	pending, err := mgr.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
