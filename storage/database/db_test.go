package database

import (
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationsFS, migrationsDir+"/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/00001_create_users.sql",
		"migrations/00002_create_user_permissions.sql",
		"migrations/00003_create_orders.sql",
	}, names)
}

func TestMigrate(t *testing.T) {
	defer func(orig func(string, *sql.DB, string, ...string) error) { gooseRunFunc = orig }(gooseRunFunc)

	var gotCmd, gotDir string
	var gotArgs []string
	gooseRunFunc = func(command string, _ *sql.DB, dir string, args ...string) error {
		gotCmd, gotDir, gotArgs = command, dir, args
		return nil
	}

	require.NoError(t, Migrate(nil, "up-to", "2"))
	assert.Equal(t, "up-to", gotCmd)
	assert.Equal(t, migrationsDir, gotDir)
	assert.Equal(t, []string{"2"}, gotArgs)

	gooseRunFunc = func(string, *sql.DB, string, ...string) error { return errors.New("no such command") }
	err := Migrate(nil, "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sideways")
}
