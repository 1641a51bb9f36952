package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/expenseflow/reimbursement/pkg/model"
	"github.com/expenseflow/reimbursement/pkg/useradmin"
)

func (a *App) usersCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.err, "usage: reimburse users list|create|update|delete")
		return errUsage
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return a.usersList(ctx)
	case "create":
		return a.usersCreate(ctx, rest)
	case "update":
		return a.usersUpdate(ctx, rest)
	case "delete":
		return a.usersDelete(ctx, rest)
	}
	fmt.Fprintf(a.err, "unknown users command %q\n", sub)
	return errUsage
}

func (a *App) usersList(ctx context.Context) error {
	users, err := a.users.List(ctx)
	if err != nil {
		return err
	}
	renderUsers(a.out, users)
	return nil
}

func (a *App) usersCreate(ctx context.Context, args []string) error {
	fs := a.flags("users create")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "initial password")
	role := fs.String("role", string(model.RoleEmployee), "employee, manager or admin")
	if _, err := a.parse(fs, args, false); err != nil {
		return err
	}

	u, err := a.users.Create(ctx, useradmin.NewUser{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     model.Role(*role),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User %s created (%s).\n", u.ID, u.Role)
	return nil
}

func (a *App) usersUpdate(ctx context.Context, args []string) error {
	fs := a.flags("users update")
	name := fs.String("name", "", "full name (kept when empty)")
	email := fs.String("email", "", "account email (kept when empty)")
	role := fs.String("role", "", "employee, manager or admin (kept when empty)")
	id, err := a.parse(fs, args, true)
	if err != nil {
		return err
	}

	current, err := a.users.Get(ctx, id)
	if err != nil {
		return err
	}
	upd := useradmin.UserUpdate{Name: current.Name, Email: current.Email, Role: current.Role}
	if *name != "" {
		upd.Name = *name
	}
	if *email != "" {
		upd.Email = *email
	}
	if *role != "" {
		upd.Role = model.Role(*role)
	}

	u, err := a.users.Update(ctx, id, upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User %s updated: %s <%s> (%s).\n", u.ID, u.Name, u.Email, u.Role)
	return nil
}

func (a *App) usersDelete(ctx context.Context, args []string) error {
	fs := a.flags("users delete")
	assumeYes := fs.Bool("yes", false, "do not ask for confirmation")
	id, err := a.parse(fs, args, true)
	if err != nil {
		return err
	}

	confirm := useradmin.ConfirmFunc(func(id string) bool {
		if *assumeYes {
			return true
		}
		answer, err := a.prompt(fmt.Sprintf("Delete user %s? This cannot be undone. [y/N]: ", id))
		if err != nil {
			return false
		}
		answer = strings.ToLower(answer)
		return answer == "y" || answer == "yes"
	})

	if err := a.users.Delete(ctx, id, confirm); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User %s deleted.\n", id)
	return nil
}
