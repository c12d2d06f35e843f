package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parlorchat/parlor/pkg/api"
	"github.com/parlorchat/parlor/pkg/session"
)

// AuthService is the credential surface of the REST client used by the
// auth page. *api.Client satisfies it.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password string) error
}

type authMode int

const (
	modeLogin authMode = iota
	modeRegister
)

// authModel is the login/registration page. Authentication failures are
// surfaced inline and are non-fatal.
type authModel struct {
	svc     AuthService
	session *session.Store

	username textinput.Model
	password textinput.Model
	focus    int
	mode     authMode
	busy     bool
	errText  string
	notice   string
}

func newAuthModel(svc AuthService, sess *session.Store) authModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	return authModel{
		svc:      svc,
		session:  sess,
		username: username,
		password: password,
	}
}

func (m authModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m authModel) Update(msg tea.Msg) (authModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % 2
			if m.focus == 0 {
				m.username.Focus()
				m.password.Blur()
			} else {
				m.username.Blur()
				m.password.Focus()
			}
			return m, textinput.Blink
		case "ctrl+r":
			if m.mode == modeLogin {
				m.mode = modeRegister
			} else {
				m.mode = modeLogin
			}
			m.errText = ""
			m.notice = ""
			return m, nil
		case "enter":
			if m.busy {
				return m, nil
			}
			return m.submit()
		}
	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = loginErrorText(msg.err)
			return m, nil
		}
		if err := m.session.Login(msg.token); err != nil {
			m.errText = err.Error()
			return m, nil
		}
		m.errText = ""
		m.password.Reset()
		return m, func() tea.Msg { return authDoneMsg{} }
	case registerResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = loginErrorText(msg.err)
			return m, nil
		}
		m.mode = modeLogin
		m.errText = ""
		m.notice = "Account created. Log in to continue."
		m.password.Reset()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.username, cmd = m.username.Update(msg)
	cmds = append(cmds, cmd)
	m.password, cmd = m.password.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m authModel) submit() (authModel, tea.Cmd) {
	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()
	if username == "" || password == "" {
		m.errText = "username and password are required"
		return m, nil
	}
	m.busy = true
	m.errText = ""
	m.notice = ""

	svc := m.svc
	mode := m.mode
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if mode == modeRegister {
			return registerResultMsg{username: username, err: svc.Register(ctx, username, password)}
		}
		token, err := svc.Login(ctx, username, password)
		return loginResultMsg{token: token, err: err}
	}
}

func loginErrorText(err error) string {
	if api.IsAuthError(err) {
		return "invalid username or password"
	}
	return err.Error()
}

func (m authModel) View() string {
	var b strings.Builder
	if m.mode == modeRegister {
		b.WriteString(titleStyle.Render("parlor — create account"))
	} else {
		b.WriteString(titleStyle.Render("parlor — log in"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.username.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")
	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.busy {
		b.WriteString("...\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter submit • tab switch field • ctrl+r toggle login/register • ctrl+c quit"))
	return b.String()
}
