// Package useradmin is the admin-only account management client.
package useradmin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/expenseflow/reimbursement/pkg/apiclient"
	"github.com/expenseflow/reimbursement/pkg/model"
)

// ErrNotConfirmed is returned by Delete when the Confirmer declines.
var ErrNotConfirmed = errors.New("deletion not confirmed")

const (
	listFallback   = "Failed to fetch users"
	getFallback    = "Failed to fetch users"
	createFallback = "Failed to create user"
	updateFallback = "Failed to update user"
	deleteFallback = "Failed to delete user"
)

// NewUser is the input for Create.
type NewUser struct {
	Name     string     `json:"name"     validate:"required"`
	Email    string     `json:"email"    validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     model.Role `json:"role"     validate:"required,oneof=employee manager admin"`
}

// UserUpdate is the input for Update. Passwords cannot be changed here.
type UserUpdate struct {
	Name  string     `json:"name"  validate:"required"`
	Email string     `json:"email" validate:"required,email"`
	Role  model.Role `json:"role"  validate:"required,oneof=employee manager admin"`
}

// Confirmer asks whether the account with id may be deleted.
type Confirmer interface {
	Confirm(id string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(id string) bool

func (f ConfirmFunc) Confirm(id string) bool { return f(id) }

type userEnvelope struct {
	User *model.Identity `json:"user"`
}

type userListEnvelope struct {
	Users []*model.Identity `json:"users"`
}

type Client struct {
	api      *apiclient.Client
	validate *validator.Validate
}

func New(api *apiclient.Client) *Client {
	return &Client{api: api, validate: newValidator()}
}

func (c *Client) List(ctx context.Context) ([]*model.Identity, error) {
	var out userListEnvelope
	if err := c.api.Get(ctx, "/users", &out, listFallback); err != nil {
		return nil, err
	}
	if out.Users == nil {
		out.Users = []*model.Identity{}
	}
	return out.Users, nil
}

func (c *Client) Get(ctx context.Context, id string) (*model.Identity, error) {
	var out userEnvelope
	if err := c.api.Get(ctx, userPath(id), &out, getFallback); err != nil {
		return nil, err
	}
	return requireUser(out.User)
}

func (c *Client) Create(ctx context.Context, in NewUser) (*model.Identity, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := c.check(in); err != nil {
		return nil, err
	}
	var out userEnvelope
	if err := c.api.Post(ctx, "/users", in, &out, createFallback); err != nil {
		return nil, err
	}
	return requireUser(out.User)
}

func (c *Client) Update(ctx context.Context, id string, in UserUpdate) (*model.Identity, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := c.check(in); err != nil {
		return nil, err
	}
	var out userEnvelope
	if err := c.api.Put(ctx, userPath(id), in, &out, updateFallback); err != nil {
		return nil, err
	}
	return requireUser(out.User)
}

// Delete removes the account after confirm agrees. There is no undo, so a
// nil confirm never agrees.
func (c *Client) Delete(ctx context.Context, id string, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(id) {
		return ErrNotConfirmed
	}
	return c.api.Delete(ctx, userPath(id), nil, deleteFallback)
}

func userPath(id string) string {
	return "/users/" + url.PathEscape(id)
}

func requireUser(u *model.Identity) (*model.Identity, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: no user in response", apiclient.ErrMalformedResponse)
	}
	return u, nil
}
