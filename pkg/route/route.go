// Package route names the navigation targets of the client and the role each
// one requires.
package route

import (
	"strings"

	"github.com/expenseflow/reimbursement/pkg/model"
)

// Path is a navigation target.
type Path string

const (
	Login               Path = "/login"
	Register            Path = "/register"
	Dashboard           Path = "/dashboard"
	Reimbursements      Path = "/reimbursements"
	CreateReimbursement Path = "/reimbursements/create"
	ReimbursementDetail Path = "/reimbursements/:id"
	PendingApprovals    Path = "/pending-approvals"
	AdminReimbursements Path = "/admin/reimbursements"
	AdminUsers          Path = "/admin/users"
)

// Spec describes one entry of the route table.
type Spec struct {
	Path Path
	// Public routes are only for visitors without a session.
	Public bool
	// Role, when set, must equal the identity's role exactly.
	Role model.Role
}

// Table lists every known route. Pending approvals carries no role
// requirement; the view checks CanApprove itself.
var Table = []Spec{
	{Path: Login, Public: true},
	{Path: Register, Public: true},
	{Path: Dashboard},
	{Path: Reimbursements},
	{Path: CreateReimbursement},
	{Path: ReimbursementDetail},
	{Path: PendingApprovals},
	{Path: AdminReimbursements, Role: model.RoleAdmin},
	{Path: AdminUsers, Role: model.RoleAdmin},
}

// Lookup resolves a concrete path such as /reimbursements/42 to its entry.
func Lookup(p string) (Spec, bool) {
	p = strings.TrimSuffix(p, "/")
	for _, s := range Table {
		if match(string(s.Path), p) {
			return s, true
		}
	}
	return Spec{}, false
}

func match(pattern, p string) bool {
	ps := strings.Split(pattern, "/")
	xs := strings.Split(p, "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
