package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	usr, err := cli.clt.UserSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if _, err = cli.clt.UserSvc.SetPassword(ctx, usr, pwd); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "password of %s updated\n", usr.Email)
	return nil
}
