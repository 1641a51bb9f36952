// Package model holds the wire types exchanged between the reimbursement API
// and its clients, plus the pure role and status rules derived from them.
package model

import "time"

// Role is the access level of an Identity.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Identity is an authenticated account as the API reports it.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the client-local proof of an authenticated Identity.
type Session struct {
	Token    string    `json:"token"`
	Identity *Identity `json:"identity"`
}

// Valid reports whether the token and identity are both present.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.Identity != nil
}

// RoleOf returns the role of the session identity, or "" when there is no
// valid session.
func RoleOf(s *Session) Role {
	if !s.Valid() {
		return ""
	}
	return s.Identity.Role
}

// CanApprove reports whether role may approve or reject reimbursements.
func CanApprove(role Role) bool {
	return role == RoleManager || role == RoleAdmin
}
