package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tempTokenPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "parlor", "token")
}

func TestOpenFreshSessionIsUnauthenticated(t *testing.T) {
	s, err := Open(tempTokenPath(t))
	require.NoError(t, err)
	require.False(t, s.Authenticated())
	require.Empty(t, s.Token())
}

func TestLoginWritesThroughAndSurvivesReopen(t *testing.T) {
	path := tempTokenPath(t)
	s, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, s.Login("tok-123"))
	require.True(t, s.Authenticated())
	require.Equal(t, "tok-123", s.Token())

	// a fresh store observes the persisted token
	reopened, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, "tok-123", reopened.Token())
}

func TestLogoutClearsTokenAndFile(t *testing.T) {
	path := tempTokenPath(t)
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Login("tok-123"))

	require.NoError(t, s.Logout())
	require.False(t, s.Authenticated())

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	reopened, err := Open(path)
	require.NoError(t, err)
	require.False(t, reopened.Authenticated())
}

func TestLogoutWhenLoggedOutIsANoOp(t *testing.T) {
	s, err := Open(tempTokenPath(t))
	require.NoError(t, err)
	require.NoError(t, s.Logout())
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	s, err := Open(tempTokenPath(t))
	require.NoError(t, err)
	require.Error(t, s.Login("   "))
	require.False(t, s.Authenticated())
}

func TestWatchersFireOncePerMutation(t *testing.T) {
	s, err := Open(tempTokenPath(t))
	require.NoError(t, err)

	var seen []string
	s.Notify(func(token string) { seen = append(seen, token) })

	require.NoError(t, s.Login("tok-a"))
	require.NoError(t, s.Login("tok-b"))
	require.NoError(t, s.Logout())

	require.Equal(t, []string{"tok-a", "tok-b", ""}, seen)
}

func TestTokenFilePermissions(t *testing.T) {
	path := tempTokenPath(t)
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Login("tok-123"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
