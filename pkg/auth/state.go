package auth

import "github.com/expenseflow/reimbursement/pkg/model"

// State is an immutable snapshot of the manager. Predicates are recomputed
// from the snapshot on every call.
type State struct {
	// Loading is true until Init has read the session store once.
	Loading bool
	Session *model.Session
}

func (s State) IsAuthenticated() bool { return s.Session.Valid() }

// Role is the identity's role, or "" without a session.
func (s State) Role() model.Role { return model.RoleOf(s.Session) }

func (s State) IsEmployee() bool { return s.Role() == model.RoleEmployee }
func (s State) IsManager() bool  { return s.Role() == model.RoleManager }
func (s State) IsAdmin() bool    { return s.Role() == model.RoleAdmin }

// CanApprove holds for managers and admins.
func (s State) CanApprove() bool { return model.CanApprove(s.Role()) }

// Identity returns the cached identity, or nil.
func (s State) Identity() *model.Identity {
	if !s.IsAuthenticated() {
		return nil
	}
	return s.Session.Identity
}
