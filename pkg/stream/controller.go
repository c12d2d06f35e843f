package stream

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/parlorchat/parlor/pkg/chat"
)

// State is the lifecycle phase of a controller mount. Every transition
// is guarded so a duplicate mount/unmount pair is idempotent.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateStreaming
	StateClosed
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Room-level banner messages. All recovery is user-initiated; none of
// these trigger a retry.
const (
	BannerHistoryFailed  = "Could not load earlier messages. Re-enter the room to try again."
	BannerConnectionLost = "Chat server connection lost. Please try again."
	BannerTransportError = "Chat connection error."
	BannerReloadNeeded   = "Connection to the chat server was lost. Leave the room and re-enter."
)

var (
	// ErrNotAuthenticated is returned by Mount when the room id or token
	// is absent; the caller should send the user back to the auth screen.
	ErrNotAuthenticated = errors.New("room id and token are required")
	// ErrEmptyMessage rejects empty or whitespace-only send bodies.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrStreamNotOpen rejects sends before the stream handshake finished.
	ErrStreamNotOpen = errors.New("stream is not open")
	// ErrStreamClosed rejects sends after the stream closed.
	ErrStreamClosed = errors.New("stream is closed")
)

// Conn is the subset of *websocket.Conn the controller uses, narrow
// enough to stub in tests.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// DialFunc opens the live event stream. The default dials with gorilla.
type DialFunc func(ctx context.Context, rawURL string) (Conn, error)

// GorillaDial is the production DialFunc.
func GorillaDial(ctx context.Context, rawURL string) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, errors.Wrap(err, "dial stream")
	}
	return conn, nil
}

// HistoryLoader fetches prior events for a room, oldest first.
// *api.Client satisfies it.
type HistoryLoader interface {
	Messages(ctx context.Context, roomID string) ([]chat.Event, error)
}

// StreamURL derives the websocket address for a room from the server
// base URL, carrying the bearer token as a query parameter.
func StreamURL(serverURL, roomID, token string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", errors.Wrap(err, "parse server url")
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/chat/" + url.PathEscape(roomID)
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Config wires a Controller's collaborators.
type Config struct {
	// ServerURL is the http(s) base address of the chat server.
	ServerURL string
	// History loads prior events; required.
	History HistoryLoader
	// Dial opens the stream; defaults to GorillaDial.
	Dial DialFunc
	// CloseReason is the human-readable reason sent with the normal
	// close frame on unmount.
	CloseReason string
}

// Controller presents a live, ordered view of one room's events. One
// controller serves one mount at a time; the stream handle is owned
// exclusively by the current mount and never shared.
type Controller struct {
	cfg Config

	mu     sync.Mutex
	state  State
	roomID string
	gen    string
	conn   Conn
	cancel context.CancelFunc
	banner string
	view   *View

	updates chan struct{}
}

// NewController builds an idle controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.History == nil {
		return nil, errors.New("history loader is required")
	}
	if cfg.Dial == nil {
		cfg.Dial = GorillaDial
	}
	if cfg.CloseReason == "" {
		cfg.CloseReason = "user left the room"
	}
	return &Controller{
		cfg:     cfg,
		state:   StateIdle,
		view:    NewView(),
		updates: make(chan struct{}, 1),
	}, nil
}

// State returns the current lifecycle phase.
func (c *Controller) State() State {
	if c == nil {
		return StateIdle
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Banner returns the current room-level error banner, or "".
func (c *Controller) Banner() string {
	if c == nil {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

// Snapshot returns the ordered event sequence of the current mount.
func (c *Controller) Snapshot() []chat.Event {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	v := c.view
	c.mu.Unlock()
	return v.Snapshot()
}

// Updates is a coalescing change signal; receivers re-read Snapshot,
// State and Banner after each tick.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

func (c *Controller) wake() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// Mount starts the lifecycle for one room. Both roomID and token must be
// present; otherwise nothing is dialed and no history is requested.
// History load and stream open are started independently so a slow or
// failing history fetch never delays the stream. Mounting while a mount
// is already active is a no-op.
func (c *Controller) Mount(ctx context.Context, roomID, token string) error {
	if c == nil {
		return errors.New("controller is not initialized")
	}
	if strings.TrimSpace(roomID) == "" || strings.TrimSpace(token) == "" {
		return ErrNotAuthenticated
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.state == StateLoading || c.state == StateStreaming {
		c.mu.Unlock()
		return nil
	}
	gen := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	c.gen = gen
	c.roomID = roomID
	c.state = StateLoading
	c.banner = ""
	c.view = NewView()
	c.cancel = cancel
	c.mu.Unlock()
	c.wake()

	log.Debug().Str("component", "stream").Str("room_id", roomID).Str("mount", gen).Msg("mounting room stream")
	go c.loadHistory(runCtx, gen, roomID)
	go c.openStream(runCtx, gen, roomID, token)
	return nil
}

func (c *Controller) loadHistory(ctx context.Context, gen, roomID string) {
	events, err := c.cfg.History.Messages(ctx, roomID)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		log.Debug().Str("component", "stream").Str("room_id", roomID).Msg("discarding history for torn-down mount")
		return
	}
	if err != nil {
		c.banner = BannerHistoryFailed
		log.Warn().Err(err).Str("component", "stream").Str("room_id", roomID).Msg("history load failed")
	} else {
		c.view.Replace(events)
	}
	c.mu.Unlock()
	c.wake()
}

func (c *Controller) openStream(ctx context.Context, gen, roomID, token string) {
	rawURL, err := StreamURL(c.cfg.ServerURL, roomID, token)
	if err != nil {
		c.failStream(gen, roomID, BannerTransportError, err)
		return
	}
	conn, err := c.cfg.Dial(ctx, rawURL)
	if err != nil {
		c.failStream(gen, roomID, BannerTransportError, err)
		return
	}

	c.mu.Lock()
	if c.gen != gen || c.conn != nil {
		// the mount was torn down mid-handshake, or a stream already
		// exists for it; never hold a second socket
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.state = StateStreaming
	c.mu.Unlock()
	c.wake()
	log.Info().Str("component", "stream").Str("room_id", roomID).Msg("stream open")

	c.readLoop(gen, roomID, conn)
}

func (c *Controller) failStream(gen, roomID, banner string, err error) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.state = StateError
	c.banner = banner
	c.mu.Unlock()
	c.wake()
	log.Warn().Err(err).Str("component", "stream").Str("room_id", roomID).Msg("stream open failed")
}

func (c *Controller) readLoop(gen, roomID string, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.streamEnded(gen, roomID, conn, err)
			return
		}
		var ev chat.Event
		if uerr := json.Unmarshal(data, &ev); uerr != nil {
			log.Warn().Err(uerr).Str("component", "stream").Str("room_id", roomID).Msg("dropping undecodable frame")
			continue
		}

		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			return
		}
		appended := c.view.Append(ev)
		c.mu.Unlock()
		if appended {
			c.wake()
		}
	}
}

// streamEnded maps a read failure onto the closure taxonomy: code 1000
// is silent, any other close code surfaces a banner, and a transport
// error surfaces a banner and forces the socket closed.
func (c *Controller) streamEnded(gen, roomID string, conn Conn, err error) {
	c.mu.Lock()
	if c.gen != gen {
		// unmount already tore this stream down
		c.mu.Unlock()
		return
	}
	c.conn = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	var closeErr *websocket.CloseError
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure):
		c.state = StateClosed
		c.mu.Unlock()
		log.Info().Str("component", "stream").Str("room_id", roomID).Msg("stream closed")
	case errors.As(err, &closeErr):
		c.state = StateError
		c.banner = BannerConnectionLost
		c.mu.Unlock()
		log.Warn().Int("code", closeErr.Code).Str("reason", closeErr.Text).
			Str("component", "stream").Str("room_id", roomID).Msg("stream closed abnormally")
	default:
		c.state = StateError
		c.banner = BannerTransportError
		c.mu.Unlock()
		log.Warn().Err(err).Str("component", "stream").Str("room_id", roomID).Msg("stream transport error")
	}
	// release the socket in every case; on a transport error this is
	// what forces the stream closed
	_ = conn.Close()
	c.wake()
}

type outboundFrame struct {
	Text string `json:"text"`
}

// Send transmits one message. The body is trimmed; empty bodies never
// produce a frame. The server attributes the sender from the bearer
// token, so only the text travels. Messages sent while the stream is
// closed are dropped, never queued.
func (c *Controller) Send(body string) error {
	if c == nil {
		return errors.New("controller is not initialized")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateStreaming:
	case StateClosed, StateError:
		c.banner = BannerReloadNeeded
		c.wake()
		return ErrStreamClosed
	default:
		return ErrStreamNotOpen
	}
	if c.conn == nil {
		return ErrStreamNotOpen
	}

	payload, err := json.Marshal(outboundFrame{Text: body})
	if err != nil {
		return errors.Wrap(err, "encode message")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.state = StateError
		c.banner = BannerTransportError
		c.wake()
		return errors.Wrap(err, "send message")
	}
	return nil
}

// Unmount closes an open stream with a normal-closure frame and clears
// the handle and error state so the next mount starts clean. Unmounting
// with no open stream issues no close call.
func (c *Controller) Unmount() {
	if c == nil {
		return
	}
	c.mu.Lock()
	conn := c.conn
	open := c.state == StateStreaming && conn != nil
	roomID := c.roomID
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.conn = nil
	c.gen = ""
	c.banner = ""
	if c.state != StateIdle {
		c.state = StateClosed
	}
	c.mu.Unlock()

	if open {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, c.cfg.CloseReason)
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = conn.Close()
		log.Info().Str("component", "stream").Str("room_id", roomID).Msg("stream unmounted")
	}
	c.wake()
}
