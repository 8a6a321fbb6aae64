package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/examprep/core/access"
)

func (cli *commandLine) changeGrants(ctx context.Context, email string, perms []access.Permission, revoke bool) error {
	if err := cli.clt.Validate.Var(perms, "dive,permission"); err != nil {
		if vErrs, ok := err.(validator.ValidationErrors); ok {
			return fmt.Errorf("invalid permission %q", vErrs[0].Value())
		}
		return err
	}

	usr, err := cli.clt.UserSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if revoke {
		err = cli.clt.GrantRepo.Revoke(ctx, usr.ID, perms)
	} else {
		err = cli.clt.GrantRepo.Grant(ctx, usr.ID, perms)
	}
	if err != nil {
		return err
	}

	grants, err := cli.clt.GrantRepo.ListGrants(ctx, usr.ID)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%s grants: %v\n", usr.Email, grants)
	return nil
}
