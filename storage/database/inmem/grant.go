package inmemdb

import (
	"context"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
)

type GrantRepository struct {
	db *grantTable
}

func NewGrantRepository(db *DB) *GrantRepository {
	return &GrantRepository{db: db.grant}
}

func (repo *GrantRepository) ListGrants(_ context.Context, userID string, _ ...core.DBExecutor) ([]access.Permission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	perms, ok := repo.db.table[userID]
	if !ok {
		return []access.Permission{}, nil
	}
	return perms.List(), nil
}

func (repo *GrantRepository) Grant(_ context.Context, userID string, perms []access.Permission, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	set, ok := repo.db.table[userID]
	if !ok {
		set = access.PermissionSet{}
		repo.db.table[userID] = set
	}
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return nil
}

func (repo *GrantRepository) Revoke(_ context.Context, userID string, perms []access.Permission, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if set, ok := repo.db.table[userID]; ok {
		for _, p := range perms {
			delete(set, p)
		}
	}
	return nil
}
