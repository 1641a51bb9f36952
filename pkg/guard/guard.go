// Package guard decides whether a view may render for the current auth state.
//
// Role requirements are exact matches: an admin is not let into a view that
// requires the manager role.
package guard

import (
	"github.com/expenseflow/reimbursement/pkg/auth"
	"github.com/expenseflow/reimbursement/pkg/model"
	"github.com/expenseflow/reimbursement/pkg/route"
)

// Outcome is the kind of decision.
type Outcome int

const (
	// Pending means the session is still loading; make no navigation decision.
	Pending Outcome = iota
	RedirectLogin
	RedirectDashboard
	Allow
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDashboard:
		return "redirect_dashboard"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Decision is the outcome plus the route to navigate to for redirects.
type Decision struct {
	Outcome Outcome
	Target  route.Path
}

// Decide applies the access policy to a protected view. required may be empty.
func Decide(state auth.State, required model.Role) Decision {
	switch {
	case state.Loading:
		return Decision{Outcome: Pending}
	case !state.IsAuthenticated():
		return Decision{Outcome: RedirectLogin, Target: route.Login}
	case required != "" && state.Role() != required:
		return Decision{Outcome: RedirectDashboard, Target: route.Dashboard}
	}
	return Decision{Outcome: Allow}
}

// DecidePublic applies the policy for login and registration: visitors see
// them, authenticated identities go to the dashboard.
func DecidePublic(state auth.State) Decision {
	switch {
	case state.Loading:
		return Decision{Outcome: Pending}
	case state.IsAuthenticated():
		return Decision{Outcome: RedirectDashboard, Target: route.Dashboard}
	}
	return Decision{Outcome: Allow}
}

// ForRoute resolves path in the route table and decides. Unknown paths are
// sent to the dashboard, which itself requires a session.
func ForRoute(state auth.State, path string) Decision {
	spec, ok := route.Lookup(path)
	if !ok {
		if d := Decide(state, ""); d.Outcome != Allow {
			return d
		}
		return Decision{Outcome: RedirectDashboard, Target: route.Dashboard}
	}
	if spec.Public {
		return DecidePublic(state)
	}
	return Decide(state, spec.Role)
}
