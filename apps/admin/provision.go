package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) provision(ctx context.Context, orderID string) error {
	res, err := cli.clt.OrderSvc.Provision(ctx, orderID)
	if err != nil {
		return err
	}
	verb := "upgraded"
	if res.Created {
		verb = "created"
	}
	_, _ = fmt.Fprintf(cli.out, "order %s provisioned: user %s %s with package %s\n", res.Order.ID, res.User.Email, verb, res.User.Package)
	return nil
}
