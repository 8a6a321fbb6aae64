package order

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/exam"
	"github.com/trezcool/examprep/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("order not found")
	ErrNotPaid            = errors.New("order is not paid")
	ErrAlreadyProvisioned = errors.New("order is already provisioned")

	generatePasswordFunc = user.GeneratePassword // mockable
)

type (
	Repository interface {
		CreateOrder(ctx context.Context, o Order, exec ...core.DBExecutor) (Order, error)
		// GetOrder returns ErrNotFound when no order has this id.
		GetOrder(ctx context.Context, id string, exec ...core.DBExecutor) (Order, error)
		MarkProvisioned(ctx context.Context, id, userID string, at time.Time, exec ...core.DBExecutor) error
	}

	Service interface {
		// Provision gives the buyer of a paid order access to its package: a student account
		// is created (or the existing account of the same email upgraded) and the order marked
		// provisioned. The buyer is emailed their credentials.
		Provision(ctx context.Context, orderID string) (Provisioned, error)
	}

	Provisioned struct {
		Order   Order     `json:"order"`
		User    user.User `json:"user"`
		Created bool      `json:"created"` // a new account was created
	}

	service struct {
		db      core.DB // nil: no transaction
		orders  Repository
		users   user.Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, orders Repository, users user.Repository, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		db:      db,
		orders:  orders,
		users:   users,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func (svc *service) withTx(ctx context.Context, fn func(exec ...core.DBExecutor) error) error {
	if svc.db == nil {
		return fn()
	}
	return core.WithTx(ctx, svc.db, func(tx *sql.Tx) error { return fn(tx) })
}

func (svc *service) Provision(ctx context.Context, orderID string) (Provisioned, error) {
	var (
		res Provisioned
		pwd string
	)

	err := svc.withTx(ctx, func(exec ...core.DBExecutor) error {
		o, err := svc.orders.GetOrder(ctx, orderID, exec...)
		if err != nil {
			return err
		}
		switch {
		case !o.IsPaid():
			return ErrNotPaid
		case o.IsProvisioned():
			return ErrAlreadyProvisioned
		}

		now := time.Now().UTC()
		usr, err := svc.users.GetUser(ctx, user.GetFilter{Email: core.CleanString(o.Email, true /* lower */)}, exec...)
		switch errors.Cause(err) {
		case nil:
			// never downgrade
			if usr.Package == "" || exam.IsSuitable(usr.Package, o.Package) {
				usr.Package = o.Package
			}
			usr.IsActive = true
			usr.UpdatedAt = now
			if usr, err = svc.users.UpdateUser(ctx, usr, exec...); err != nil {
				return errors.Wrap(err, "upgrading user")
			}
		case user.ErrNotFound:
			if pwd, err = generatePasswordFunc(); err != nil {
				return errors.Wrap(err, "generating password")
			}
			usr = user.User{
				Name:      core.CleanString(o.Name),
				Email:     core.CleanString(o.Email, true /* lower */),
				IsActive:  true,
				Role:      access.RoleStudent,
				Package:   o.Package,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err = usr.SetPassword(pwd); err != nil {
				return errors.Wrap(err, "setting password")
			}
			if usr, err = svc.users.CreateUser(ctx, usr, exec...); err != nil {
				return errors.Wrap(err, "creating user")
			}
			res.Created = true
		default:
			return errors.Wrap(err, "getting user")
		}

		if err = svc.orders.MarkProvisioned(ctx, o.ID, usr.ID, now, exec...); err != nil {
			return errors.Wrap(err, "marking order provisioned")
		}
		o.UserID = usr.ID
		o.ProvisionedAt = now

		res.Order = o
		res.User = usr
		return nil
	})
	if err != nil {
		return Provisioned{}, err
	}

	svc.logger.Info(fmt.Sprintf("order %s provisioned for user %s (%s)", res.Order.ID, res.User.ID, res.User.Package))
	svc.sendProvisionedMail(res, pwd)
	return res, nil
}

func (svc *service) sendProvisionedMail(res Provisioned, pwd string) {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: res.User.Name, Address: res.User.Email}},
		Subject: fmt.Sprintf("Your %s package is ready", res.Order.Package),
	}
	if res.Created {
		msg.TemplateName = "credentials"
		msg.TemplateData = map[string]interface{}{
			"Package":  res.Order.Package,
			"Email":    res.User.Email,
			"Password": pwd,
		}
	} else {
		msg.TemplateName = "package_activated"
		msg.TemplateData = map[string]interface{}{
			"Name":    res.User.Name,
			"Package": res.User.Package,
		}
	}
	svc.mailSvc.SendMessages(msg)
}
