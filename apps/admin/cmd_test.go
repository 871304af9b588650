package main

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigranyan252/studentperf/core/user"
	dummydb "github.com/tigranyan252/studentperf/storage/database/dummy"
)

func TestCommandLine_run(t *testing.T) {
	var gotCommand string
	var gotArgs []string
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		gotCommand = command
		gotArgs = args
		return nil
	}
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("V3ry.Secret"), nil }

	db, err := dummydb.Open()
	require.NoError(t, err)
	cli := &commandLine{db: &sqlx.DB{}, usrRepo: dummydb.NewUserRepository(db)}

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"no arguments", []string{"admin"}, errHelp},
		{"unknown command", []string{"admin", "frobnicate"}, errHelp},
		{"migrate without subcommand", []string{"admin", "migrate"}, errHelp},
		{"migrate up", []string{"admin", "migrate", "up"}, nil},
		{"migrate up-to with version", []string{"admin", "migrate", "up-to", "3"}, nil},
		{"addadmin without flags", []string{"admin", "addadmin"}, errHelp},
		{"addadmin", []string{"admin", "addadmin", "-username", "root", "-email", "root@test.test"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(tt.args)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	assert.Equal(t, "up-to", gotCommand)
	assert.Equal(t, []string{"3"}, gotArgs)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, usr.Role)
	assert.True(t, usr.IsActive)
	require.NoError(t, usr.CheckPassword("V3ry.Secret"))
}

func TestCommandLine_addAdminResetsExisting(t *testing.T) {
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("N3w.Secret"), nil }

	db, err := dummydb.Open()
	require.NoError(t, err)
	cli := &commandLine{usrRepo: dummydb.NewUserRepository(db)}

	require.NoError(t, cli.addAdmin("root", "root@test.test", "V3ry.Secret"))
	orig, err := cli.usrRepo.GetUserByUsernameOrEmail(context.Background(), "root")
	require.NoError(t, err)

	// deactivate, then re-add: the account comes back with the new password
	orig.IsActive = false
	_, err = cli.usrRepo.UpdateUser(context.Background(), orig)
	require.NoError(t, err)

	require.NoError(t, cli.run([]string{"admin", "addadmin", "-username", "root", "-email", "root@test.test"}))

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(context.Background(), "root")
	require.NoError(t, err)
	assert.True(t, usr.IsActive)
	require.NoError(t, usr.CheckPassword("N3w.Secret"))
	assert.Error(t, usr.CheckPassword("V3ry.Secret"))
}
