package tui

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/parlor/pkg/api"
	"github.com/parlorchat/parlor/pkg/session"
)

type stubAuthService struct {
	logins    int
	registers int
	token     string
	err       error
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (string, error) {
	s.logins++
	return s.token, s.err
}

func (s *stubAuthService) Register(_ context.Context, _, _ string) error {
	s.registers++
	return s.err
}

func testSession(t *testing.T) *session.Store {
	t.Helper()
	s, err := session.Open(filepath.Join(t.TempDir(), "token"))
	require.NoError(t, err)
	return s
}

func TestSubmitRejectsEmptyCredentials(t *testing.T) {
	svc := &stubAuthService{}
	m := newAuthModel(svc, testSession(t))

	m, cmd := m.Update(enterKey())
	require.Nil(t, cmd)
	require.Equal(t, "username and password are required", m.errText)
	require.Equal(t, 0, svc.logins)
}

func TestLoginSuccessPersistsTokenAndAdvances(t *testing.T) {
	sess := testSession(t)
	m := newAuthModel(&stubAuthService{token: "tok-1"}, sess)
	m.username.SetValue("alice")
	m.password.SetValue("pw")

	m, cmd := m.Update(enterKey())
	require.True(t, m.busy)
	msgs := runCmd(cmd)
	require.Len(t, msgs, 1)

	m, cmd = m.Update(msgs[0])
	require.False(t, m.busy)
	require.Empty(t, m.errText)
	require.Equal(t, "tok-1", sess.Token())

	msgs = runCmd(cmd)
	require.Len(t, msgs, 1)
	require.IsType(t, authDoneMsg{}, msgs[0])
}

func TestRejectedLoginShowsFriendlyError(t *testing.T) {
	m := newAuthModel(&stubAuthService{}, testSession(t))

	m, cmd := m.Update(loginResultMsg{err: &api.Error{Status: http.StatusUnauthorized, ClientMsg: "Incorrect username or password"}})
	require.Nil(t, cmd)
	require.Equal(t, "invalid username or password", m.errText)
}

func TestRegisterSuccessFallsBackToLogin(t *testing.T) {
	m := newAuthModel(&stubAuthService{}, testSession(t))
	m.mode = modeRegister

	m, cmd := m.Update(registerResultMsg{username: "alice"})
	require.Nil(t, cmd)
	require.Equal(t, modeLogin, m.mode)
	require.Contains(t, m.notice, "Log in to continue")
}

func TestCtrlRTogglesMode(t *testing.T) {
	m := newAuthModel(&stubAuthService{}, testSession(t))
	require.Equal(t, modeLogin, m.mode)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, modeRegister, m.mode)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, modeLogin, m.mode)
}
