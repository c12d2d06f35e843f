package tui

import "github.com/parlorchat/parlor/pkg/chat"

// Messages crossing page boundaries. Pages emit these from commands;
// the app model routes on them.

type authDoneMsg struct{}

type sessionLostMsg struct{}

type roomSelectedMsg struct {
	room chat.Room
}

type leaveRoomMsg struct{}

type logoutMsg struct{}

// Page-local results.

type loginResultMsg struct {
	token string
	err   error
}

type registerResultMsg struct {
	username string
	err      error
}

type roomsLoadedMsg struct {
	rooms []chat.Room
	err   error
}

type roomCreatedMsg struct {
	room chat.Room
	err  error
}

// streamTickMsg signals that the room stream controller changed state;
// the chat page re-reads its snapshot, state and banner.
type streamTickMsg struct{}
