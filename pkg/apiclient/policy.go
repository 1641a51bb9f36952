package apiclient

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/expenseflow/reimbursement/pkg/route"
	"github.com/expenseflow/reimbursement/pkg/session"
)

// Navigator moves the user interface to a route.
type Navigator interface {
	Navigate(to route.Path)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(to route.Path)

func (f NavigatorFunc) Navigate(to route.Path) { f(to) }

type nopNavigator struct{}

func (nopNavigator) Navigate(route.Path) {}

// AuthFailurePolicy runs synchronously for every 401 response, before the
// caller sees the error.
type AuthFailurePolicy interface {
	HandleAuthFailure(ctx context.Context)
}

// SessionResetPolicy clears the session store and sends the user to the
// login route.
type SessionResetPolicy struct {
	Store     session.Store
	Navigator Navigator
	Log       zerolog.Logger
}

func (p *SessionResetPolicy) HandleAuthFailure(context.Context) {
	if err := p.Store.Clear(); err != nil {
		p.Log.Error().Err(err).Msg("clear session after auth failure")
	}
	nav := p.Navigator
	if nav == nil {
		nav = nopNavigator{}
	}
	nav.Navigate(route.Login)
}
