package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/order"
)

type orderRepository struct {
	db *orderTable
}

var _ order.Repository = (*orderRepository)(nil) // interface compliance check

func NewOrderRepository(db *DB) order.Repository {
	return &orderRepository{db: db.order}
}

func (repo *orderRepository) CreateOrder(_ context.Context, o order.Order, _ ...core.DBExecutor) (order.Order, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	o.ID = uuid.New().String()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	repo.db.table[o.ID] = &o
	return o, nil
}

func (repo *orderRepository) GetOrder(_ context.Context, id string, _ ...core.DBExecutor) (order.Order, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if o, ok := repo.db.table[id]; ok {
		return *o, nil
	}
	return order.Order{}, order.ErrNotFound
}

func (repo *orderRepository) MarkProvisioned(_ context.Context, id, userID string, at time.Time, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	o, ok := repo.db.table[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.IsProvisioned() {
		return order.ErrAlreadyProvisioned
	}
	o.UserID = userID
	o.ProvisionedAt = at.UTC()
	return nil
}
