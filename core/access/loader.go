package access

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var nowFunc = time.Now // mockable

// Loader resolves users and their permissions. It is shared by the Store (one client)
// and by request handlers (one state per request).
type Loader struct {
	Users   UserLookup
	Fetcher PermissionFetcher // optional
	RoleMap RolePermissionMap // optional override of DefaultRolePermissions
}

// ResolveUser looks up the user behind sess.
// A missing record is not an error: a student user is synthesized from the session.
func (l Loader) ResolveUser(ctx context.Context, sess Session) (User, error) {
	if l.Users != nil {
		usr, err := l.Users.LookupUser(ctx, sess.UserID)
		if err == nil {
			return usr, nil
		}
		if errors.Cause(err) != ErrUserNotFound {
			return User{}, errors.Wrap(err, "looking up user")
		}
	}
	now := nowFunc().UTC()
	return User{
		ID:        sess.UserID,
		Email:     sess.Email,
		Role:      RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Permissions loads the permissions of a user.
// Without a Fetcher the role's permissions are returned. When the Fetcher fails the
// role's permissions are returned along with the error, so callers never end up
// with nothing because of a transient failure.
func (l Loader) Permissions(ctx context.Context, userID string, role Role) (PermissionSet, error) {
	if l.Fetcher == nil {
		return Resolve(role, l.RoleMap), nil
	}
	perms, err := l.Fetcher.FetchPermissions(ctx, userID)
	if err != nil {
		return Resolve(role, l.RoleMap), errors.Wrap(err, "fetching permissions")
	}
	return NewPermissionSet(perms...), nil
}

// Load builds the full state of usr. A nil usr yields the signed out state.
func (l Loader) Load(ctx context.Context, usr *User) State {
	if usr == nil {
		return State{Permissions: PermissionSet{}}
	}
	u := *usr
	perms, err := l.Permissions(ctx, u.ID, u.Role)
	st := State{User: &u, Permissions: perms}
	if err != nil {
		st.Error = err.Error()
	}
	return st
}
