package backend

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/user"
	sessionsvc "github.com/trezcool/examprep/services/session"
)

func testConfig(t *testing.T) *core.Config {
	t.Helper()
	conf, err := core.LoadConfig("test")
	require.NoError(t, err)
	return conf
}

func newTestClient(t *testing.T, conf *core.Config) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	clt, err := NewInMemory(conf, nil, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = clt.Close() })
	return clt
}

func createUser(t *testing.T, clt *Client, email string, role access.Role) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr, err := clt.UserRepo.CreateUser(context.Background(), user.User{
		Name:      "Test User",
		Email:     email,
		IsActive:  true,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return usr
}

func TestHandle(t *testing.T) {
	conf := testConfig(t)
	var calls int
	newClientFunc = func(conf *core.Config, logger core.Logger) (*Client, error) {
		calls++
		return &Client{Conf: conf}, nil
	}
	t.Cleanup(func() { newClientFunc = New })

	var h Handle
	_, err := h.Get()
	assert.Equal(t, ErrNotInitialized, err)

	require.NoError(t, h.Init(conf, nil))
	clt, err := h.Get()
	require.NoError(t, err)
	assert.Same(t, conf, clt.Conf)

	require.NoError(t, h.Init(conf, nil))
	assert.Equal(t, 1, calls, "second Init is a no-op")

	require.NoError(t, h.Close())
	_, err = h.Get()
	assert.Equal(t, ErrNotInitialized, err)
	require.NoError(t, h.Close())
}

func TestHandle_InitFailure(t *testing.T) {
	newClientFunc = func(*core.Config, core.Logger) (*Client, error) {
		return nil, assert.AnError
	}
	t.Cleanup(func() { newClientFunc = New })

	var h Handle
	err := h.Init(testConfig(t), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), assert.AnError.Error())

	_, err = h.Get()
	assert.Equal(t, ErrNotInitialized, err)
}

func TestNewInMemory_BadRoleMap(t *testing.T) {
	conf := testConfig(t)
	conf.Access.RoleMapFile = "does-not-exist.yaml"
	mr := miniredis.RunT(t)

	_, err := NewInMemory(conf, nil, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	assert.Error(t, err)
}

func TestGrantFetcher(t *testing.T) {
	ctx := context.Background()
	clt := newTestClient(t, testConfig(t))
	teacher := createUser(t, clt, "teacher@x.io", access.RoleTeacher)
	require.NoError(t, clt.GrantRepo.Grant(ctx, teacher.ID, []access.Permission{access.PermQuestionDelete}))

	fetcher := GrantFetcher{Users: clt.UserRepo, Grants: clt.GrantRepo}

	t.Run("role defaults plus grants", func(t *testing.T) {
		perms, err := fetcher.FetchPermissions(ctx, teacher.ID)
		require.NoError(t, err)
		set := access.NewPermissionSet(perms...)
		assert.True(t, set.Has(access.PermQuestionDelete))
		assert.True(t, set.Has(access.PermQuestionEdit))
		assert.False(t, set.Has(access.PermUserCreate))
		assert.Len(t, perms, len(access.DefaultRolePermissions[access.RoleTeacher])+1)
	})

	t.Run("no record", func(t *testing.T) {
		perms, err := fetcher.FetchPermissions(ctx, "missing")
		require.NoError(t, err)
		assert.ElementsMatch(t, access.DefaultRolePermissions[access.RoleStudent], perms)
	})

	t.Run("role map override", func(t *testing.T) {
		f := fetcher
		f.RoleMap = access.RolePermissionMap{access.RoleTeacher: {access.PermExamView}}
		perms, err := f.FetchPermissions(ctx, teacher.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []access.Permission{access.PermExamView, access.PermQuestionDelete}, perms)
	})
}

func TestClient_NewStore(t *testing.T) {
	ctx := context.Background()
	conf := testConfig(t)
	conf.Access.FetchGrants = true
	clt := newTestClient(t, conf)
	require.NotNil(t, clt.Loader.Fetcher)

	teacher := createUser(t, clt, "teacher@x.io", access.RoleTeacher)
	require.NoError(t, clt.GrantRepo.Grant(ctx, teacher.ID, []access.Permission{access.PermRoleView}))

	store, src := clt.NewStore(sessionsvc.NewClientID())
	defer store.Close()
	store.Initialize(ctx)
	require.Nil(t, store.Snapshot().User)

	_, err := src.Login(ctx, teacher.Identity())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		st := store.Snapshot()
		return st.User != nil && !st.IsLoading
	}, time.Second, 10*time.Millisecond)

	st := store.Snapshot()
	assert.Equal(t, teacher.ID, st.User.ID)
	assert.Empty(t, st.Error)
	assert.True(t, store.HasRole(access.RoleTeacher))
	assert.True(t, store.HasAllPermissions(access.PermQuestionEdit, access.PermRoleView))
	assert.False(t, store.HasPermission(access.PermUserCreate))

	// a second client's store is independent
	other, _ := clt.NewStore(sessionsvc.NewClientID())
	defer other.Close()
	other.Initialize(ctx)
	assert.Nil(t, other.Snapshot().User)
}

func TestClient_Close(t *testing.T) {
	mr := miniredis.RunT(t)
	clt, err := NewInMemory(testConfig(t), nil, redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)

	require.NoError(t, clt.Close())
	require.NoError(t, clt.Close())
	assert.Error(t, clt.Redis.Ping(context.Background()).Err())
}
