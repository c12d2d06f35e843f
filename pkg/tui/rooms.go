package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parlorchat/parlor/pkg/chat"
)

// RoomService is the room surface of the REST client used by the rooms
// page. *api.Client satisfies it.
type RoomService interface {
	ListRooms(ctx context.Context) ([]chat.Room, error)
	CreateRoom(ctx context.Context, name string) (chat.Room, error)
}

// roomsModel lists rooms, creates rooms and selects a room to enter.
// Failures show up as transient, dismissable notices; nothing retries.
type roomsModel struct {
	svc RoomService

	rooms    []chat.Room
	cursor   int
	loading  bool
	creating bool
	input    textinput.Model
	notice   string
	spinner  spinner.Model
}

func newRoomsModel(svc RoomService) roomsModel {
	input := textinput.New()
	input.Placeholder = "room name"
	input.CharLimit = 80

	sp := spinner.New()
	sp.Spinner = spinner.Line

	return roomsModel{svc: svc, input: input, spinner: sp}
}

// load fetches the room list once; there is no polling.
func (m roomsModel) load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		rooms, err := svc.ListRooms(ctx)
		return roomsLoadedMsg{rooms: rooms, err: err}
	}
}

// create issues the create-room call. Callers must have rejected
// empty/whitespace-only names already; this only ships valid names.
func (m roomsModel) create(name string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		room, err := svc.CreateRoom(ctx, name)
		return roomCreatedMsg{room: room, err: err}
	}
}

func (m roomsModel) Update(msg tea.Msg) (roomsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case roomsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.notice = "could not load rooms: " + msg.err.Error()
			return m, nil
		}
		m.rooms = msg.rooms
		if m.cursor >= len(m.rooms) {
			m.cursor = 0
		}
		return m, nil
	case roomCreatedMsg:
		if msg.err != nil {
			m.notice = "could not create room: " + msg.err.Error()
			return m, nil
		}
		m.creating = false
		m.input.Reset()
		m.notice = ""
		m.loading = true
		// one refresh per successful create
		return m, tea.Batch(m.load(), m.spinner.Tick)
	case tea.KeyMsg:
		if m.notice != "" && msg.String() != "enter" {
			m.notice = ""
		}
		if m.creating {
			return m.updateCreating(msg)
		}
		return m.updateList(msg)
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m roomsModel) updateCreating(msg tea.KeyMsg) (roomsModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.creating = false
		m.input.Reset()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			// never reaches the server
			m.notice = "room name cannot be empty"
			return m, nil
		}
		return m, m.create(name)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m roomsModel) updateList(msg tea.KeyMsg) (roomsModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rooms)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.rooms) {
			room := m.rooms[m.cursor]
			return m, func() tea.Msg { return roomSelectedMsg{room: room} }
		}
	case "n":
		m.creating = true
		m.input.Focus()
		return m, textinput.Blink
	case "r":
		m.loading = true
		return m, tea.Batch(m.load(), m.spinner.Tick)
	case "ctrl+l":
		return m, func() tea.Msg { return logoutMsg{} }
	}
	return m, nil
}

func (m roomsModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("parlor — rooms"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " loading rooms...\n")
	case len(m.rooms) == 0:
		b.WriteString(helpStyle.Render("no rooms yet — press n to create one"))
		b.WriteString("\n")
	default:
		for i, room := range m.rooms {
			line := fmt.Sprintf("%s %s", room.Name, ownerStyle.Render("("+room.ID+")"))
			if i == m.cursor {
				line = cursorStyle.Render("> ") + line
			} else {
				line = "  " + line
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if m.creating {
		b.WriteString("\n")
		b.WriteString("new room: " + m.input.View())
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter join • n new room • r refresh • ctrl+l log out • ctrl+c quit"))
	return b.String()
}
