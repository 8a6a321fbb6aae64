package main

import (
	"context"
	"fmt"

	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/user"
)

func (cli *commandLine) addUser(ctx context.Context, name, email, role, pkg, pwd string) error {
	nu := user.NewUser{
		Name:            name,
		Email:           email,
		Role:            access.Role(role),
		Package:         pkg,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
	if err := nu.Validate(ctx, cli.clt.Validate, cli.clt.UserSvc); err != nil {
		return err
	}
	usr, err := cli.clt.UserSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "user %s created: %s (%s)\n", usr.ID, usr.Email, usr.Role)
	return nil
}
