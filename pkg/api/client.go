package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/parlorchat/parlor/pkg/chat"
)

// TokenSource yields the bearer token attached to authenticated calls.
// *session.Store satisfies it.
type TokenSource interface {
	Token() string
}

// Error is a typed REST failure allowing callers to branch on the HTTP
// status without string matching. ClientMsg carries the server's detail
// string when one was returned.
type Error struct {
	Status    int
	ClientMsg string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.ClientMsg != "" {
		return fmt.Sprintf("%s (status %d)", e.ClientMsg, e.Status)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsAuthError reports whether err is a rejected-credential failure.
func IsAuthError(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type createRoomRequest struct {
	Name string `json:"name"`
}

// Client issues authenticated REST calls against the chat backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
}

// Option mutates a Client during construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New builds a Client for the given server base URL. tokens may be nil
// for a client only used for register/login.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse server url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 15 * time.Second},
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	if c == nil || c.base == nil {
		return ""
	}
	return c.base.String()
}

// Register creates a new account. No token is attached.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, "/register", false, credentials{Username: username, Password: password}, nil)
}

// Login exchanges credentials for a bearer token. The token is returned,
// not stored; the caller owns session persistence.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", false, credentials{Username: username, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errors.New("login response did not contain a token")
	}
	return resp.AccessToken, nil
}

// ListRooms fetches all rooms.
func (c *Client) ListRooms(ctx context.Context) ([]chat.Room, error) {
	var rooms []chat.Room
	if err := c.do(ctx, http.MethodGet, "/rooms", true, nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom creates a room. The server rejects duplicate names with a
// 400 whose detail string is surfaced via *Error.
func (c *Client) CreateRoom(ctx context.Context, name string) (chat.Room, error) {
	var room chat.Room
	if err := c.do(ctx, http.MethodPost, "/rooms", true, createRoomRequest{Name: name}, &room); err != nil {
		return chat.Room{}, err
	}
	return room, nil
}

// Messages fetches the message history for a room, oldest first.
func (c *Client) Messages(ctx context.Context, roomID string) ([]chat.Event, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, errors.New("room id is empty")
	}
	var events []chat.Event
	if err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(roomID)+"/messages", true, nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	if c == nil || c.base == nil {
		return errors.New("api client is not initialized")
	}
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token := ""
		if c.tokens != nil {
			token = c.tokens.Token()
		}
		if token == "" {
			return &Error{Status: http.StatusUnauthorized, ClientMsg: "not logged in"}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug().
		Str("component", "api").
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("rest call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}

// decodeError extracts the server's detail string when present. The
// backend wraps error messages as {"detail": "..."}.
func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		apiErr.ClientMsg = strings.TrimSpace(payload.Detail)
	}
	return apiErr
}
