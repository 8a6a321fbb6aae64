package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_ResolveUser(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	nowFunc = func() time.Time { return now }
	defer func() { nowFunc = time.Now }()

	ctx := context.Background()
	sess := Session{ID: "s1", UserID: "u1", Email: "jane@example.com"}
	teacher := User{ID: "u1", Email: "jane@example.com", Role: RoleTeacher}

	t.Run("record found", func(t *testing.T) {
		l := Loader{Users: &fakeUsers{users: map[string]User{"u1": teacher}}}
		usr, err := l.ResolveUser(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, teacher, usr)
	})

	t.Run("record missing", func(t *testing.T) {
		l := Loader{Users: &fakeUsers{}}
		usr, err := l.ResolveUser(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, User{ID: "u1", Email: "jane@example.com", Role: RoleStudent, CreatedAt: now, UpdatedAt: now}, usr)
	})

	t.Run("no lookup", func(t *testing.T) {
		usr, err := Loader{}.ResolveUser(ctx, sess)
		require.NoError(t, err)
		assert.Equal(t, RoleStudent, usr.Role)
	})

	t.Run("inactive user", func(t *testing.T) {
		l := Loader{Users: &fakeUsers{err: ErrUserInactive}}
		_, err := l.ResolveUser(ctx, sess)
		assert.True(t, errors.Is(err, ErrUserInactive))
	})

	t.Run("lookup failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		l := Loader{Users: &fakeUsers{err: boom}}
		_, err := l.ResolveUser(ctx, sess)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestLoader_Permissions(t *testing.T) {
	ctx := context.Background()

	t.Run("role defaults", func(t *testing.T) {
		perms, err := Loader{}.Permissions(ctx, "u1", RoleStudent)
		require.NoError(t, err)
		assert.Equal(t, Resolve(RoleStudent, nil), perms)
	})

	t.Run("role map override", func(t *testing.T) {
		l := Loader{RoleMap: RolePermissionMap{RoleStudent: {PermExamView}}}
		perms, err := l.Permissions(ctx, "u1", RoleStudent)
		require.NoError(t, err)
		assert.Equal(t, []Permission{PermExamView}, perms.List())
	})

	t.Run("fetched", func(t *testing.T) {
		l := Loader{Fetcher: PermissionFetcherFunc(func(_ context.Context, userID string) ([]Permission, error) {
			assert.Equal(t, "u1", userID)
			return []Permission{PermUserEdit}, nil
		})}
		perms, err := l.Permissions(ctx, "u1", RoleStudent)
		require.NoError(t, err)
		assert.Equal(t, []Permission{PermUserEdit}, perms.List())
	})

	t.Run("fetch failure falls back to role", func(t *testing.T) {
		l := Loader{Fetcher: PermissionFetcherFunc(func(context.Context, string) ([]Permission, error) {
			return nil, errors.New("timeout")
		})}
		perms, err := l.Permissions(ctx, "u1", RoleTeacher)
		require.Error(t, err)
		assert.Equal(t, Resolve(RoleTeacher, nil), perms)
	})
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()

	st := Loader{}.Load(ctx, nil)
	assert.Nil(t, st.User)
	assert.Empty(t, st.Permissions)
	assert.False(t, st.IsLoading)

	usr := &User{ID: "u1", Role: RoleAdmin}
	st = Loader{}.Load(ctx, usr)
	require.NotNil(t, st.User)
	assert.Equal(t, "u1", st.User.ID)
	assert.True(t, st.HasPermission(PermSettingsEdit))
	assert.Empty(t, st.Error)

	l := Loader{Fetcher: PermissionFetcherFunc(func(context.Context, string) ([]Permission, error) {
		return nil, errors.New("timeout")
	})}
	st = l.Load(ctx, usr)
	assert.True(t, st.HasPermission(PermSettingsEdit))
	assert.Contains(t, st.Error, "timeout")
}
