package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parlorchat/parlor/pkg/chat"
	"github.com/parlorchat/parlor/pkg/session"
	"github.com/parlorchat/parlor/pkg/stream"
)

// RoomStream is the controller surface the chat page drives.
// *stream.Controller satisfies it.
type RoomStream interface {
	Mount(ctx context.Context, roomID, token string) error
	Unmount()
	Send(body string) error
	Snapshot() []chat.Event
	State() stream.State
	Banner() string
	Updates() <-chan struct{}
}

// chatModel is the per-room chat page. It owns exactly one controller
// mount; leaving the page unmounts the stream.
type chatModel struct {
	stream  RoomStream
	session *session.Store

	room     chat.Room
	input    textinput.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

func newChatModel(rs RoomStream, sess *session.Store) chatModel {
	input := textinput.New()
	input.Placeholder = "type a message..."
	input.CharLimit = 1024

	return chatModel{stream: rs, session: sess, input: input}
}

// enter mounts the controller for the selected room. An absent token
// sends the user back to the auth page without opening anything.
func (m *chatModel) enter(room chat.Room) tea.Cmd {
	m.room = room
	m.input.Reset()
	m.input.Focus()
	if err := m.stream.Mount(context.Background(), room.ID, m.session.Token()); err != nil {
		// ErrNotAuthenticated and any other mount-time failure both send
		// the user back to the unauthenticated entry point
		return func() tea.Msg { return sessionLostMsg{} }
	}
	return tea.Batch(textinput.Blink, waitForStream(m.stream.Updates()))
}

// leave tears the mount down.
func (m *chatModel) leave() {
	m.stream.Unmount()
}

// waitForStream turns the controller's coalescing update channel into
// bubbletea messages.
func waitForStream(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return streamTickMsg{}
	}
}

func (m chatModel) Update(msg tea.Msg) (chatModel, tea.Cmd) {
	switch msg := msg.(type) {
	case streamTickMsg:
		m.refreshViewport()
		return m, waitForStream(m.stream.Updates())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return leaveRoomMsg{} }
		case "enter":
			body := m.input.Value()
			if err := m.stream.Send(body); err == nil {
				m.input.Reset()
			}
			// Send failures surface through the controller banner; the
			// typed message stays in the input so nothing is lost.
			return m, nil
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// resizeForApp applies the last known window size when the page is
// entered after the size message already arrived.
func (m *chatModel) resizeForApp(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	m.width = width
	m.height = height
	m.resizeViewport()
}

func (m *chatModel) resizeViewport() {
	// header + banner line + input + help
	chrome := 6
	h := m.height - chrome
	if h < 3 {
		h = 3
	}
	w := m.width
	if w < 20 {
		w = 20
	}
	if !m.ready {
		m.viewport = viewport.New(w, h)
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = h
	}
	m.refreshViewport()
}

func (m *chatModel) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderEvents(m.stream.Snapshot()))
	m.viewport.GotoBottom()
}

func renderEvents(events []chat.Event) string {
	if len(events) == 0 {
		return helpStyle.Render("no messages yet — say hello!")
	}
	var b strings.Builder
	for _, ev := range events {
		b.WriteString(senderStyle.Render(ev.Sender))
		b.WriteString(": ")
		b.WriteString(ev.Text)
		if ev.Timestamp != nil {
			b.WriteString("  ")
			b.WriteString(timeStyle.Render("(" + ev.Timestamp.Local().Format("15:04:05") + ")"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m chatModel) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("room: " + m.room.Name))
	b.WriteString("\n")
	if banner := m.stream.Banner(); banner != "" {
		b.WriteString(errorStyle.Render(banner))
	}
	b.WriteString("\n")
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(renderEvents(m.stream.Snapshot()))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter send • esc back to rooms • ctrl+c quit"))
	return b.String()
}
