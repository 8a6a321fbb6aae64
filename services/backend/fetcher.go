package backend

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/user"
)

// GrantRepository stores permissions granted to individual users on top of their role's.
type GrantRepository interface {
	ListGrants(ctx context.Context, userID string, exec ...core.DBExecutor) ([]access.Permission, error)
	Grant(ctx context.Context, userID string, perms []access.Permission, exec ...core.DBExecutor) error
	Revoke(ctx context.Context, userID string, perms []access.Permission, exec ...core.DBExecutor) error
}

// GrantFetcher is the PermissionFetcher used when custom grants are enabled:
// a user holds their role's permissions plus their explicit grants.
type GrantFetcher struct {
	Users   user.Repository
	Grants  GrantRepository
	RoleMap access.RolePermissionMap
}

var _ access.PermissionFetcher = GrantFetcher{}

func (f GrantFetcher) FetchPermissions(ctx context.Context, userID string) ([]access.Permission, error) {
	usr, err := f.Users.GetUser(ctx, user.GetFilter{ID: userID})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			// no record, no grants
			return access.Resolve(access.RoleStudent, f.RoleMap).List(), nil
		}
		return nil, errors.Wrap(err, "getting user")
	}

	grants, err := f.Grants.ListGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms := access.Resolve(usr.Role, f.RoleMap)
	for _, p := range grants {
		perms[p] = struct{}{}
	}
	return perms.List(), nil
}
