package boiledrepos

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core/exam"
	"github.com/trezcool/examprep/core/order"
)

const testOrderID = "0b9e3f3c-7f53-4a0f-9d0c-57e4b7f6a1d2"

func newMock(t *testing.T) (*orderRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewOrderRepository(db), mock
}

func TestOrderRepository_GetOrder(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	paid := created.Add(time.Hour)

	t.Run("found", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`SELECT (.+) FROM orders WHERE id = \$1`).
			WithArgs(testOrderID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "package", "status", "amount_cents", "user_id", "created_at", "paid_at", "provisioned_at"}).
				AddRow(testOrderID, "Jane", "jane@example.com", "ADVANCE", "paid", 4900, nil, created, paid, nil))

		o, err := repo.GetOrder(ctx, testOrderID)
		require.NoError(t, err)
		assert.Equal(t, order.Order{
			ID:          testOrderID,
			Name:        "Jane",
			Email:       "jane@example.com",
			Package:     exam.LevelAdvance,
			Status:      order.StatusPaid,
			AmountCents: 4900,
			CreatedAt:   created,
			PaidAt:      paid,
		}, o)
		assert.True(t, o.IsPaid())
		assert.False(t, o.IsProvisioned())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(`SELECT (.+) FROM orders`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetOrder(ctx, testOrderID)
		assert.Equal(t, order.ErrNotFound, err)
	})

	t.Run("invalid id", func(t *testing.T) {
		repo, _ := newMock(t)
		_, err := repo.GetOrder(ctx, "nope")
		assert.Equal(t, order.ErrNotFound, err)
	})
}

func TestOrderRepository_CreateOrder(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(sqlmock.AnyArg(), "Jane", "jane@example.com", "STARTER", "pending", int64(1900), nil, sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	o, err := repo.CreateOrder(context.Background(), order.Order{
		Name:        "Jane",
		Email:       "jane@example.com",
		Package:     exam.LevelStarter,
		Status:      order.StatusPending,
		AmountCents: 1900,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.False(t, o.CreatedAt.IsZero())
}

func TestOrderRepository_MarkProvisioned(t *testing.T) {
	ctx := context.Background()
	at := time.Now()

	t.Run("marked", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(`UPDATE orders SET user_id = \$2, provisioned_at = \$3 WHERE id = \$1 AND provisioned_at IS NULL`).
			WithArgs(testOrderID, "u1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkProvisioned(ctx, testOrderID, "u1", at))
	})

	t.Run("already provisioned", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(`UPDATE orders SET`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.Equal(t, order.ErrAlreadyProvisioned, repo.MarkProvisioned(ctx, testOrderID, "u1", at))
	})
}
