package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
)

// GrantRepository stores permissions granted to individual users.
type GrantRepository struct {
	db *sqlx.DB
}

func NewGrantRepository(db *sqlx.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// ListGrants returns the permissions explicitly granted to userID, sorted.
func (repo GrantRepository) ListGrants(ctx context.Context, userID string, exec ...core.DBExecutor) ([]access.Permission, error) {
	perms := make([]access.Permission, 0)
	q := `SELECT permission FROM user_permissions WHERE user_id = $1 ORDER BY permission`
	if err := sqlx.SelectContext(ctx, getExec(repo.db, exec), &perms, q, userID); err != nil {
		return nil, errors.Wrap(err, "listing grants")
	}
	return perms, nil
}

// Grant grants perms to userID. Already granted permissions are ignored.
func (repo GrantRepository) Grant(ctx context.Context, userID string, perms []access.Permission, exec ...core.DBExecutor) error {
	q := `INSERT INTO user_permissions (user_id, permission) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	exe := getExec(repo.db, exec)
	for _, p := range perms {
		if _, err := exe.ExecContext(ctx, q, userID, string(p)); err != nil {
			return errors.Wrapf(err, "granting %s", p)
		}
	}
	return nil
}

// Revoke revokes perms from userID.
func (repo GrantRepository) Revoke(ctx context.Context, userID string, perms []access.Permission, exec ...core.DBExecutor) error {
	strs := make([]string, 0, len(perms))
	for _, p := range perms {
		strs = append(strs, string(p))
	}
	q := `DELETE FROM user_permissions WHERE user_id = $1 AND permission = ANY($2)`
	if _, err := getExec(repo.db, exec).ExecContext(ctx, q, userID, stringArray(strs)); err != nil {
		return errors.Wrap(err, "revoking grants")
	}
	return nil
}
