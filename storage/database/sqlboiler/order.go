package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/exam"
	"github.com/trezcool/examprep/core/order"
)

const orderColumns = `id, name, email, package, status, amount_cents, user_id, created_at, paid_at, provisioned_at`

type boiledOrder struct {
	ID            string      `boil:"id"`
	Name          string      `boil:"name"`
	Email         string      `boil:"email"`
	Package       string      `boil:"package"`
	Status        string      `boil:"status"`
	AmountCents   int64       `boil:"amount_cents"`
	UserID        null.String `boil:"user_id"`
	CreatedAt     time.Time   `boil:"created_at"`
	PaidAt        null.Time   `boil:"paid_at"`
	ProvisionedAt null.Time   `boil:"provisioned_at"`
}

type orderRepository struct {
	exec core.DBExecutor
}

var _ order.Repository = (*orderRepository)(nil) // interface compliance check

func NewOrderRepository(exec core.DBExecutor) *orderRepository {
	return &orderRepository{exec: exec}
}

func (repo orderRepository) getExec(svcExec []core.DBExecutor) boil.ContextExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo orderRepository) boil(o order.Order) boiledOrder {
	return boiledOrder{
		ID:            o.ID,
		Name:          o.Name,
		Email:         o.Email,
		Package:       string(o.Package),
		Status:        string(o.Status),
		AmountCents:   o.AmountCents,
		UserID:        null.NewString(o.UserID, o.UserID != ""),
		CreatedAt:     o.CreatedAt.UTC(),
		PaidAt:        null.NewTime(o.PaidAt.UTC(), !o.PaidAt.IsZero()),
		ProvisionedAt: null.NewTime(o.ProvisionedAt.UTC(), !o.ProvisionedAt.IsZero()),
	}
}

func (repo orderRepository) unboil(o boiledOrder) order.Order {
	return order.Order{
		ID:            o.ID,
		Name:          o.Name,
		Email:         o.Email,
		Package:       exam.Level(o.Package),
		Status:        order.Status(o.Status),
		AmountCents:   o.AmountCents,
		UserID:        o.UserID.String,
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt.Time,
		ProvisionedAt: o.ProvisionedAt.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to order.ErrNotFound
func (repo orderRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return order.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo orderRepository) CreateOrder(ctx context.Context, o order.Order, exec ...core.DBExecutor) (order.Order, error) {
	o.ID = uuid.New().String()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	b := repo.boil(o)
	_, err := queries.Raw(
		`INSERT INTO orders (`+orderColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.Name, b.Email, b.Package, b.Status, b.AmountCents, b.UserID, b.CreatedAt, b.PaidAt, b.ProvisionedAt,
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return order.Order{}, errors.Wrap(err, "inserting order")
	}
	return o, nil
}

func (repo orderRepository) GetOrder(ctx context.Context, id string, exec ...core.DBExecutor) (order.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return order.Order{}, order.ErrNotFound
	}

	var b boiledOrder
	q := queries.Raw(`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err := q.Bind(ctx, repo.getExec(exec), &b); err != nil {
		return order.Order{}, repo.trapNoRowsErr(err, "finding order")
	}
	return repo.unboil(b), nil
}

func (repo orderRepository) MarkProvisioned(ctx context.Context, id, userID string, at time.Time, exec ...core.DBExecutor) error {
	res, err := queries.Raw(
		`UPDATE orders SET user_id = $2, provisioned_at = $3 WHERE id = $1 AND provisioned_at IS NULL`,
		id, userID, at.UTC(),
	).ExecContext(ctx, repo.getExec(exec))
	if err != nil {
		return errors.Wrap(err, "updating order")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating order")
	}
	if n == 0 {
		return order.ErrAlreadyProvisioned
	}
	return nil
}
