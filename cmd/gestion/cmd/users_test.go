package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPassword replaces the terminal password reader for the duration
// of a test.
func stubPassword(t *testing.T, password string) {
	t.Helper()
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) {
		return []byte(password), nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func setUsersFile(t *testing.T) string {
	t.Helper()
	orig := usersFile
	usersFile = filepath.Join(t.TempDir(), "users.json")
	t.Cleanup(func() { usersFile = orig })
	return usersFile
}

func TestUsersCreateAndList(t *testing.T) {
	setUsersFile(t)
	stubPassword(t, "secret1")

	require.NoError(t, usersCreateCmd.RunE(usersCreateCmd, []string{"marie"}))

	users, err := userService().ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "marie", users[0].Username)
}

func TestUsersCreateRejectsShortPassword(t *testing.T) {
	setUsersFile(t)
	stubPassword(t, "abc")

	err := usersCreateCmd.RunE(usersCreateCmd, []string{"marie"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 6 characters")
}

func TestUsersCreateDuplicate(t *testing.T) {
	setUsersFile(t)
	stubPassword(t, "secret1")

	require.NoError(t, usersCreateCmd.RunE(usersCreateCmd, []string{"marie"}))
	err := usersCreateCmd.RunE(usersCreateCmd, []string{"marie"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUsersDelete(t *testing.T) {
	setUsersFile(t)
	stubPassword(t, "secret1")

	require.NoError(t, usersCreateCmd.RunE(usersCreateCmd, []string{"marie"}))
	require.NoError(t, usersDeleteCmd.RunE(usersDeleteCmd, []string{"marie"}))

	users, err := userService().ListUsers()
	require.NoError(t, err)
	assert.Empty(t, users)

	// Deleting again reports not-found without an error.
	require.NoError(t, usersDeleteCmd.RunE(usersDeleteCmd, []string{"marie"}))
}

func TestUsersInitRefusesNonEmptyFile(t *testing.T) {
	setUsersFile(t)
	stubPassword(t, "secret1")

	require.NoError(t, usersCreateCmd.RunE(usersCreateCmd, []string{"marie"}))
	err := usersInitCmd.RunE(usersInitCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to seed")
}
