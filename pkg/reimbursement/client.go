// Package reimbursement drives the approval lifecycle of reimbursement
// requests through the API.
//
// A request starts pending and moves at most once, to approved or rejected.
// The server is the final authority; this client refuses the calls it can
// already tell are illegal and keeps list results consistent by dropping its
// list cache after every successful write.
package reimbursement

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/expenseflow/reimbursement/pkg/apiclient"
	"github.com/expenseflow/reimbursement/pkg/model"
)

var (
	ErrCommentsRequired = errors.New("comments are required when rejecting")
	ErrTitleRequired    = errors.New("title is required")
	// ErrAlreadyDecided is returned for an approve or reject on a request
	// that is no longer pending.
	ErrAlreadyDecided = errors.New("reimbursement has already been decided")
)

const (
	createFallback  = "Failed to create reimbursement"
	mineFallback    = "Failed to fetch reimbursements"
	pendingFallback = "Failed to fetch pending reimbursements"
	allFallback     = "Failed to fetch reimbursements"
	detailFallback  = "Failed to fetch reimbursement details"
	approveFallback = "Failed to approve reimbursement"
	rejectFallback  = "Failed to reject reimbursement"
)

// ListKind names a cached list.
type ListKind string

const (
	ListMine    ListKind = "mine"
	ListPending ListKind = "pending"
	ListAll     ListKind = "all"
)

var listPaths = map[ListKind]struct{ path, fallback string }{
	ListMine:    {"/reimbursements", mineFallback},
	ListPending: {"/reimbursements/pending", pendingFallback},
	ListAll:     {"/reimbursements/all", allFallback},
}

// CreateInput is the raw form input. Amount is parsed before submission.
type CreateInput struct {
	Title       string
	Description string
	Amount      string
}

type createRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`
}

type decisionRequest struct {
	Comments string `json:"comments,omitempty"`
}

type envelope struct {
	Reimbursement *model.Reimbursement `json:"reimbursement"`
}

type listEnvelope struct {
	Reimbursements []model.Reimbursement `json:"reimbursements"`
}

// cacheEntry is a list as seen through one session token.
type cacheEntry struct {
	token string
	items []model.Reimbursement
}

// Client is safe for concurrent use.
type Client struct {
	api *apiclient.Client

	mu    sync.Mutex
	cache map[ListKind]cacheEntry
	// gen is bumped by Refresh; a fetch that started under an older
	// generation must not be cached.
	gen uint64
}

func New(api *apiclient.Client) *Client {
	return &Client{api: api, cache: make(map[ListKind]cacheEntry)}
}

// Create submits a new request. The requester is whoever holds the session.
func (c *Client) Create(ctx context.Context, in CreateInput) (*model.Reimbursement, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	amount, err := model.ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	var out envelope
	req := createRequest{Title: title, Description: strings.TrimSpace(in.Description), Amount: amount}
	if err := c.api.Post(ctx, "/reimbursements", req, &out, createFallback); err != nil {
		return nil, err
	}
	if out.Reimbursement == nil {
		return nil, fmt.Errorf("%w: create returned no reimbursement", apiclient.ErrMalformedResponse)
	}
	c.Refresh()
	return out.Reimbursement, nil
}

// ListMine returns the caller's own requests.
func (c *Client) ListMine(ctx context.Context) ([]model.Reimbursement, error) {
	return c.list(ctx, ListMine)
}

// ListPending returns requests awaiting a decision. The server only answers
// for identities that can approve.
func (c *Client) ListPending(ctx context.Context) ([]model.Reimbursement, error) {
	return c.list(ctx, ListPending)
}

// ListAll returns every request. The server only answers for admins.
func (c *Client) ListAll(ctx context.Context) ([]model.Reimbursement, error) {
	return c.list(ctx, ListAll)
}

// list serves kind from the cache when the entry was fetched with the
// current session token. Entries of another identity count as misses.
func (c *Client) list(ctx context.Context, kind ListKind) ([]model.Reimbursement, error) {
	token := c.sessionToken()

	c.mu.Lock()
	entry, ok := c.cache[kind]
	gen := c.gen
	c.mu.Unlock()
	if ok && entry.token == token {
		return clone(entry.items), nil
	}

	p := listPaths[kind]
	var out listEnvelope
	if err := c.api.Get(ctx, p.path, &out, p.fallback); err != nil {
		return nil, err
	}
	items := out.Reimbursements
	if items == nil {
		items = []model.Reimbursement{}
	}

	c.mu.Lock()
	if c.gen == gen && token != "" && c.sessionToken() == token {
		c.cache[kind] = cacheEntry{token: token, items: items}
	}
	c.mu.Unlock()
	return clone(items), nil
}

func (c *Client) sessionToken() string {
	s, err := c.api.Store().Get()
	if err != nil || !s.Valid() {
		return ""
	}
	return s.Token
}

// Get returns one request with its approval history, oldest first.
func (c *Client) Get(ctx context.Context, id string) (*model.Reimbursement, error) {
	var out envelope
	if err := c.api.Get(ctx, "/reimbursements/"+url.PathEscape(id), &out, detailFallback); err != nil {
		return nil, err
	}
	if out.Reimbursement == nil {
		return nil, fmt.Errorf("%w: no reimbursement in response", apiclient.ErrMalformedResponse)
	}
	return out.Reimbursement, nil
}

// Approve moves a pending request to approved. Comments are optional.
func (c *Client) Approve(ctx context.Context, id, comments string) (*model.Reimbursement, error) {
	return c.decide(ctx, id, "approve", strings.TrimSpace(comments), approveFallback)
}

// Reject moves a pending request to rejected. Blank comments are refused
// without contacting the server.
func (c *Client) Reject(ctx context.Context, id, comments string) (*model.Reimbursement, error) {
	comments = strings.TrimSpace(comments)
	if comments == "" {
		return nil, ErrCommentsRequired
	}
	return c.decide(ctx, id, "reject", comments, rejectFallback)
}

// ApproveRequest is Approve for an already fetched request; it refuses
// locally when r is not pending.
func (c *Client) ApproveRequest(ctx context.Context, r *model.Reimbursement, comments string) (*model.Reimbursement, error) {
	if !r.Status.CanTransitionTo(model.StatusApproved) {
		return nil, ErrAlreadyDecided
	}
	return c.Approve(ctx, r.ID, comments)
}

// RejectRequest is Reject for an already fetched request.
func (c *Client) RejectRequest(ctx context.Context, r *model.Reimbursement, comments string) (*model.Reimbursement, error) {
	if !r.Status.CanTransitionTo(model.StatusRejected) {
		return nil, ErrAlreadyDecided
	}
	return c.Reject(ctx, r.ID, comments)
}

func (c *Client) decide(ctx context.Context, id, action, comments, fallback string) (*model.Reimbursement, error) {
	var out envelope
	path := "/reimbursements/" + url.PathEscape(id) + "/" + action
	if err := c.api.Put(ctx, path, decisionRequest{Comments: comments}, &out, fallback); err != nil {
		return nil, err
	}
	c.Refresh()
	if out.Reimbursement == nil {
		return nil, fmt.Errorf("%w: %s returned no reimbursement", apiclient.ErrMalformedResponse, action)
	}
	return out.Reimbursement, nil
}

// Refresh drops every cached list so the next read goes to the server.
// Fetches already in flight are not cached when they complete.
func (c *Client) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.cache = make(map[ListKind]cacheEntry)
}

func clone(items []model.Reimbursement) []model.Reimbursement {
	return append([]model.Reimbursement(nil), items...)
}
