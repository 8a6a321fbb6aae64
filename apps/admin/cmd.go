package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/services/backend"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db  *sql.DB
	clt *backend.Client
	out io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                           - run goose migrations (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  adduser -name NAME -email EMAIL -role ROLE [-package PACKAGE] - create a user")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword -email EMAIL                       - reset user's password")
	_, _ = fmt.Fprintln(cli.out, "  grant -email EMAIL -perms PERM[,PERM]            - grant permissions to a user")
	_, _ = fmt.Fprintln(cli.out, "  revoke -email EMAIL -perms PERM[,PERM]           - revoke permissions granted to a user")
	_, _ = fmt.Fprintln(cli.out, "  provision -order ORDER_ID                        - create the account of a paid order")
	_, _ = fmt.Fprintln(cli.out, "  watch -client CLIENT_ID [-follow]                - show the dashboard of a client")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", string(access.RoleStudent), "One of student, teacher or admin.")
	addUserPackage := addUserCmd.String("package", "", "The student's package: STARTER, INTERMEDIATE or ADVANCE.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	grantCmd := flag.NewFlagSet(args[1], flag.ContinueOnError)
	grantEmail := grantCmd.String("email", "", "The user's email.")
	grantPerms := grantCmd.String("perms", "", "Comma separated permissions, e.g. question:delete,role:view")

	provisionCmd := flag.NewFlagSet("provision", flag.ContinueOnError)
	provisionOrder := provisionCmd.String("order", "", "The paid order's ID.")

	watchCmd := flag.NewFlagSet("watch", flag.ContinueOnError)
	watchClient := watchCmd.String("client", "", "The client ID, as returned on login.")
	watchFollow := watchCmd.Bool("follow", false, "Keep rendering on every change until interrupted.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, grantCmd, provisionCmd, watchCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, *addUserName, *addUserEmail, *addUserRole, *addUserPackage, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordEmail, pwd)

	case "grant", "revoke":
		if err := grantCmd.Parse(args[2:]); err != nil {
			return err
		}
		perms := splitPermissions(*grantPerms)
		if *grantEmail == "" || len(perms) == 0 {
			grantCmd.Usage()
			return errHelp
		}
		return cli.changeGrants(ctx, *grantEmail, perms, args[1] == "revoke")

	case "provision":
		if err := provisionCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *provisionOrder == "" {
			provisionCmd.Usage()
			return errHelp
		}
		return cli.provision(ctx, *provisionOrder)

	case "watch":
		if err := watchCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *watchClient == "" {
			watchCmd.Usage()
			return errHelp
		}
		return cli.watch(ctx, *watchClient, *watchFollow)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func splitPermissions(s string) []access.Permission {
	perms := make([]access.Permission, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, access.Permission(p))
		}
	}
	return perms
}
