package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/expenseflow/reimbursement/pkg/auth"
	"github.com/expenseflow/reimbursement/pkg/model"
	"github.com/expenseflow/reimbursement/pkg/reimbursement"
	"github.com/expenseflow/reimbursement/pkg/route"
)

func (a *App) commandTable() map[string]*command {
	detail := func(args []string) string {
		id, _ := splitID(args)
		if id == "" {
			id = "_"
		}
		return "/reimbursements/" + id
	}

	cmds := []*command{
		{name: "login", usage: "log in (--email, --password)", route: route.Login, run: a.login},
		{name: "register", usage: "create an account (--name, --email, --password, --role)", route: route.Register, run: a.register},
		{name: "logout", usage: "end the session", route: route.Dashboard, run: a.logout},
		{name: "whoami", usage: "show the logged in identity", route: route.Dashboard, run: a.whoami},
		{name: "dashboard", usage: "show request statistics", route: route.Dashboard, run: func(ctx context.Context, _ []string) error {
			return a.showDashboard(ctx)
		}},
		{name: "list", usage: "list my reimbursements", route: route.Reimbursements, run: a.listMine},
		{name: "create", usage: "submit a reimbursement (--title, --amount, --description)", route: route.CreateReimbursement, run: a.create},
		{name: "show", usage: "show one reimbursement: show <id>", route: route.ReimbursementDetail, target: detail, run: a.show},
		{name: "pending", usage: "list requests awaiting approval", route: route.PendingApprovals, run: a.pending},
		{name: "approve", usage: "approve a request: approve <id> [--comments]", route: route.PendingApprovals, run: a.approve},
		{name: "reject", usage: "reject a request: reject <id> --comments", route: route.PendingApprovals, run: a.reject},
		{name: "all", usage: "list every reimbursement with a summary (--status)", route: route.AdminReimbursements, run: a.all},
		{name: "users", usage: "manage accounts: users list|create|update|delete", route: route.AdminUsers, run: a.usersCmd},
	}

	table := make(map[string]*command, len(cmds))
	for _, c := range cmds {
		table[c.name] = c
	}
	return table
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when empty)")
	if _, err := a.parse(fs, args, false); err != nil {
		return err
	}

	var err error
	if *email == "" {
		if *email, err = a.prompt("Email: "); err != nil {
			return err
		}
	}
	if *password == "" {
		if *password, err = a.prompt("Password: "); err != nil {
			return err
		}
	}

	res, err := a.auth.Login(ctx, auth.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s (%s).\n", res.Identity.Name, res.Identity.Role)
	return a.showDashboard(ctx)
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password, at least 6 characters")
	role := fs.String("role", "", "employee (default), manager or admin")
	if _, err := a.parse(fs, args, false); err != nil {
		return err
	}

	u, err := a.auth.Register(ctx, auth.Profile{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     model.Role(*role),
	})
	if err != nil {
		return err
	}
	who := *email
	if u != nil {
		who = u.Email
	}
	fmt.Fprintf(a.out, "Account %s created. Run `reimburse login` to sign in.\n", who)
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) whoami(_ context.Context, _ []string) error {
	id := a.auth.State().Identity()
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\nid:   %s\n", id.Name, id.Email, id.Role, id.ID)
	return nil
}

func (a *App) showDashboard(ctx context.Context) error {
	state := a.auth.State()
	st, err := a.reimbursements.Dashboard(ctx, state)
	if err != nil {
		return err
	}
	renderDashboard(a.out, state.Identity(), st)
	return nil
}

func (a *App) listMine(ctx context.Context, _ []string) error {
	items, err := a.reimbursements.ListMine(ctx)
	if err != nil {
		return err
	}
	renderList(a.out, items, false)
	return nil
}

func (a *App) create(ctx context.Context, args []string) error {
	fs := a.flags("create")
	title := fs.String("title", "", "short title")
	description := fs.String("description", "", "optional details")
	amount := fs.String("amount", "", "non-negative amount")
	if _, err := a.parse(fs, args, false); err != nil {
		return err
	}

	r, err := a.reimbursements.Create(ctx, reimbursement.CreateInput{
		Title:       *title,
		Description: *description,
		Amount:      *amount,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reimbursement %s submitted (%s).\n", r.ID, r.Status)
	return nil
}

func (a *App) show(ctx context.Context, args []string) error {
	id, err := a.parse(a.flags("show"), args, true)
	if err != nil {
		return err
	}
	r, err := a.reimbursements.Get(ctx, id)
	if err != nil {
		return err
	}
	renderDetail(a.out, r, a.auth.State().CanApprove())
	return nil
}

func (a *App) pending(ctx context.Context, _ []string) error {
	if err := a.requireApprover(ctx); err != nil {
		return err
	}
	items, err := a.reimbursements.ListPending(ctx)
	if err != nil {
		return err
	}
	renderList(a.out, items, true)
	return nil
}

func (a *App) approve(ctx context.Context, args []string) error {
	fs := a.flags("approve")
	comments := fs.String("comments", "", "optional comments")
	id, err := a.parse(fs, args, true)
	if err != nil {
		return err
	}
	if err := a.requireApprover(ctx); err != nil {
		return err
	}
	current, err := a.reimbursements.Get(ctx, id)
	if err != nil {
		return err
	}
	r, err := a.reimbursements.ApproveRequest(ctx, current, *comments)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reimbursement %s approved.\n", r.ID)
	return nil
}

func (a *App) reject(ctx context.Context, args []string) error {
	fs := a.flags("reject")
	comments := fs.String("comments", "", "reason for rejecting (required)")
	id, err := a.parse(fs, args, true)
	if err != nil {
		return err
	}
	if err := a.requireApprover(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(*comments) == "" {
		return reimbursement.ErrCommentsRequired
	}
	current, err := a.reimbursements.Get(ctx, id)
	if err != nil {
		return err
	}
	r, err := a.reimbursements.RejectRequest(ctx, current, *comments)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reimbursement %s rejected.\n", r.ID)
	return nil
}

// requireApprover is the view-level check of the pending approvals screen,
// whose route itself carries no role.
func (a *App) requireApprover(ctx context.Context) error {
	if a.auth.State().CanApprove() {
		return nil
	}
	fmt.Fprintln(a.err, "You do not have access to that page.")
	if err := a.showDashboard(ctx); err != nil {
		return err
	}
	return errRedirected
}

func (a *App) all(ctx context.Context, args []string) error {
	fs := a.flags("all")
	status := fs.String("status", "", "filter: pending, approved or rejected")
	if _, err := a.parse(fs, args, false); err != nil {
		return err
	}
	filter := model.Status(strings.ToLower(*status))
	if filter != "" && !filter.Valid() {
		return fmt.Errorf("unknown status %q", *status)
	}

	items, err := a.reimbursements.ListAll(ctx)
	if err != nil {
		return err
	}
	renderSummary(a.out, model.Summarize(items))
	fmt.Fprintln(a.out)
	renderList(a.out, model.FilterByStatus(items, filter), true)
	return nil
}
