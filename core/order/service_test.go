package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/examprep/core"
	"github.com/trezcool/examprep/core/access"
	"github.com/trezcool/examprep/core/exam"
	"github.com/trezcool/examprep/core/order"
	"github.com/trezcool/examprep/core/user"
	emailsvc "github.com/trezcool/examprep/services/email"
	inmemdb "github.com/trezcool/examprep/storage/database/inmem"
)

const generatedPwd = "Gen3rated!pwdX"

type testEnv struct {
	svc    order.Service
	orders order.Repository
	users  user.Repository
}

func setUp(t *testing.T) testEnv {
	t.Helper()
	conf, err := core.LoadConfig("test")
	require.NoError(t, err)

	oldGen := *order.GeneratePasswordFunc
	*order.GeneratePasswordFunc = func() (string, error) { return generatedPwd, nil }
	t.Cleanup(func() { *order.GeneratePasswordFunc = oldGen })

	emailsvc.ResetSentMessages()
	t.Cleanup(emailsvc.ResetSentMessages)

	db := inmemdb.Open()
	env := testEnv{
		orders: inmemdb.NewOrderRepository(db),
		users:  inmemdb.NewUserRepository(db),
	}
	env.svc = order.NewService(nil, env.orders, env.users, emailsvc.NewConsoleServiceMock(conf), core.NopLogger{})
	return env
}

func (env testEnv) createOrder(t *testing.T, email string, pkg exam.Level, status order.Status) order.Order {
	t.Helper()
	o := order.Order{
		Name:        "Ada Lovelace",
		Email:       email,
		Package:     pkg,
		Status:      status,
		AmountCents: 4900,
	}
	if status == order.StatusPaid {
		o.PaidAt = time.Now().UTC()
	}
	o, err := env.orders.CreateOrder(context.Background(), o)
	require.NoError(t, err)
	return o
}

func (env testEnv) createUser(t *testing.T, email string, pkg exam.Level) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr, err := env.users.CreateUser(context.Background(), user.User{
		Name:      "Ada Lovelace",
		Email:     email,
		IsActive:  true,
		Role:      access.RoleStudent,
		Package:   pkg,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return usr
}

func TestService_Provision_NewUser(t *testing.T) {
	ctx := context.Background()
	env := setUp(t)
	o := env.createOrder(t, " Ada@X.io ", exam.LevelIntermediate, order.StatusPaid)

	res, err := env.svc.Provision(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "ada@x.io", res.User.Email)
	assert.Equal(t, access.RoleStudent, res.User.Role)
	assert.Equal(t, exam.LevelIntermediate, res.User.Package)
	assert.True(t, res.User.IsActive)
	assert.NoError(t, res.User.CheckPassword(generatedPwd))
	assert.Equal(t, res.User.ID, res.Order.UserID)
	assert.True(t, res.Order.IsProvisioned())

	stored, err := env.orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, stored.UserID)
	assert.True(t, stored.IsProvisioned())

	msg, sent := emailsvc.LastMessage()
	require.True(t, sent)
	assert.Equal(t, "ada@x.io", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, generatedPwd)
	assert.Contains(t, msg.TextContent, string(exam.LevelIntermediate))

	_, err = env.svc.Provision(ctx, o.ID)
	assert.Equal(t, order.ErrAlreadyProvisioned, errors.Cause(err))
}

func TestService_Provision_ExistingUser(t *testing.T) {
	tests := []struct {
		name        string
		userPkg     exam.Level
		orderPkg    exam.Level
		wantPackage exam.Level
	}{
		{name: "upgrade", userPkg: exam.LevelStarter, orderPkg: exam.LevelAdvance, wantPackage: exam.LevelAdvance},
		{name: "same", userPkg: exam.LevelIntermediate, orderPkg: exam.LevelIntermediate, wantPackage: exam.LevelIntermediate},
		{name: "no downgrade", userPkg: exam.LevelAdvance, orderPkg: exam.LevelStarter, wantPackage: exam.LevelAdvance},
		{name: "no package yet", orderPkg: exam.LevelStarter, wantPackage: exam.LevelStarter},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			env := setUp(t)
			usr := env.createUser(t, "ada@x.io", tc.userPkg)
			o := env.createOrder(t, "ADA@x.io", tc.orderPkg, order.StatusPaid)

			res, err := env.svc.Provision(ctx, o.ID)
			require.NoError(t, err)
			assert.False(t, res.Created)
			assert.Equal(t, usr.ID, res.User.ID)
			assert.Equal(t, tc.wantPackage, res.User.Package)

			stored, err := env.users.GetUser(ctx, user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.Equal(t, tc.wantPackage, stored.Package)

			msg, sent := emailsvc.LastMessage()
			require.True(t, sent)
			assert.Contains(t, msg.TextContent, string(tc.wantPackage))
			assert.NotContains(t, msg.TextContent, generatedPwd)
		})
	}
}

func TestService_Provision_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		env := setUp(t)
		_, err := env.svc.Provision(ctx, "missing")
		assert.Equal(t, order.ErrNotFound, errors.Cause(err))
	})

	for _, status := range []order.Status{order.StatusPending, order.StatusCancelled, order.StatusRefunded} {
		t.Run(string(status), func(t *testing.T) {
			env := setUp(t)
			o := env.createOrder(t, "ada@x.io", exam.LevelStarter, status)
			_, err := env.svc.Provision(ctx, o.ID)
			assert.Equal(t, order.ErrNotPaid, errors.Cause(err))
		})
	}

	t.Run("password generation failure", func(t *testing.T) {
		env := setUp(t)
		*order.GeneratePasswordFunc = func() (string, error) { return "", assert.AnError }
		o := env.createOrder(t, "ada@x.io", exam.LevelStarter, order.StatusPaid)

		_, err := env.svc.Provision(ctx, o.ID)
		assert.Equal(t, assert.AnError, errors.Cause(err))

		stored, err := env.orders.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsProvisioned())
		_, sent := emailsvc.LastMessage()
		assert.False(t, sent)
	})
}
