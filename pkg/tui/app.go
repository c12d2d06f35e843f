package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/parlorchat/parlor/pkg/chat"
	"github.com/parlorchat/parlor/pkg/session"
)

type page int

const (
	pageAuth page = iota
	pageRooms
	pageChat
)

// Services bundles the collaborators every page draws on. The session
// store is the only shared mutable state and has a single writer (the
// auth page / logout); everything else is read-only from here.
type Services struct {
	Session *session.Store
	Auth    AuthService
	Rooms   RoomService
	Stream  RoomStream
}

// Options configures the program.
type Options struct {
	Services Services
	// InitialRoom, when set, jumps straight into that room after
	// startup (used by `parlor chat <room-id>`).
	InitialRoom string
}

// App is the root bubbletea model: auth page, rooms page, chat page.
// Navigation is gated by the session store; losing the token drops the
// user back onto the auth page.
type App struct {
	session *session.Store
	auth    authModel
	rooms   roomsModel
	chat    chatModel
	page    page

	initialRoom string
	width       int
	height      int
}

// NewApp validates the wiring and builds the root model.
func NewApp(opts Options) (*App, error) {
	svcs := opts.Services
	if svcs.Session == nil {
		return nil, errors.New("session store is required")
	}
	if svcs.Auth == nil || svcs.Rooms == nil {
		return nil, errors.New("auth and room services are required")
	}
	if svcs.Stream == nil {
		return nil, errors.New("room stream controller is required")
	}
	return &App{
		session:     svcs.Session,
		auth:        newAuthModel(svcs.Auth, svcs.Session),
		rooms:       newRoomsModel(svcs.Rooms),
		chat:        newChatModel(svcs.Stream, svcs.Session),
		initialRoom: opts.InitialRoom,
	}, nil
}

func (a *App) Init() tea.Cmd {
	if !a.session.Authenticated() {
		a.page = pageAuth
		return a.auth.Init()
	}
	if a.initialRoom != "" {
		a.page = pageChat
		return a.chat.enter(chat.Room{ID: a.initialRoom, Name: a.initialRoom})
	}
	a.page = pageRooms
	a.rooms.loading = true
	return tea.Batch(a.rooms.load(), a.rooms.spinner.Tick)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.chat, _ = a.chat.Update(msg)
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if a.page == pageChat {
				a.chat.leave()
			}
			return a, tea.Quit
		}
	case authDoneMsg:
		a.page = pageRooms
		a.rooms.loading = true
		return a, tea.Batch(a.rooms.load(), a.rooms.spinner.Tick)
	case sessionLostMsg:
		log.Debug().Str("component", "tui").Msg("session lost, returning to auth page")
		a.page = pageAuth
		return a, a.auth.Init()
	case logoutMsg:
		if err := a.session.Logout(); err != nil {
			log.Warn().Err(err).Str("component", "tui").Msg("logout failed")
		}
		a.page = pageAuth
		return a, a.auth.Init()
	case roomSelectedMsg:
		a.page = pageChat
		cmd := a.chat.enter(msg.room)
		a.chat.resizeForApp(a.width, a.height)
		return a, cmd
	case leaveRoomMsg:
		a.chat.leave()
		a.page = pageRooms
		a.rooms.loading = true
		return a, tea.Batch(a.rooms.load(), a.rooms.spinner.Tick)
	}

	var cmd tea.Cmd
	switch a.page {
	case pageAuth:
		a.auth, cmd = a.auth.Update(msg)
	case pageRooms:
		a.rooms, cmd = a.rooms.Update(msg)
	case pageChat:
		a.chat, cmd = a.chat.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	switch a.page {
	case pageAuth:
		return a.auth.View()
	case pageRooms:
		return a.rooms.View()
	case pageChat:
		return a.chat.View()
	default:
		return ""
	}
}
