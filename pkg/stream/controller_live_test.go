package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/parlor/pkg/chat"
)

// Exercises the controller against a real websocket server end to end:
// dial with the token in the query string, inbound event append,
// outbound {"text"} frame, and the 1000 close on unmount.
func TestControllerAgainstLiveWebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan string, 1)
	closeCode := make(chan int, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ws/chat/7", r.URL.Path)
		if r.URL.Query().Get("token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer func() { _ = conn.Close() }()

		conn.SetCloseHandler(func(code int, _ string) error {
			closeCode <- code
			return nil
		})

		require.NoError(t, conn.WriteJSON(chat.Event{Sender: "server", Text: "welcome"}))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame struct {
				Text string `json:"text"`
			}
			require.NoError(t, json.Unmarshal(data, &frame))
			received <- frame.Text
			require.NoError(t, conn.WriteJSON(chat.Event{Sender: "tester", Text: frame.Text}))
		}
	}))
	defer srv.Close()

	c, err := NewController(Config{
		ServerURL: srv.URL,
		History:   &stubHistory{},
	})
	require.NoError(t, err)

	require.NoError(t, c.Mount(context.Background(), "7", "secret"))
	require.Eventually(t, func() bool { return c.State() == StateStreaming }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(c.Snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "welcome", c.Snapshot()[0].Text)

	require.NoError(t, c.Send("  hi from test  "))
	select {
	case got := <-received:
		require.Equal(t, "hi from test", got)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive the message")
	}
	require.Eventually(t, func() bool { return len(c.Snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)

	c.Unmount()
	select {
	case code := <-closeCode:
		require.Equal(t, websocket.CloseNormalClosure, code)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not observe the close frame")
	}
}
