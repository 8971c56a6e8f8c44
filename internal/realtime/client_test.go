package realtime

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWSServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client, err := hub.NewClient(ws, r.URL.Query().Get("user"))
		if err != nil {
			ws.Close()
			return
		}
		client.Run()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readEvent(t *testing.T, ws *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestWebSocketRegisterAndStatus(t *testing.T) {
	f := newHubFixture(20 * time.Millisecond)
	srv := newWSServer(t, f.hub)
	u1, u2 := newUserID(), newUserID()

	observer := dial(t, srv, u2)
	require.NoError(t, observer.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`{"event":"register_user","data":%q}`, u2))))
	assert.Equal(t, EventReceiveStatus, readEvent(t, observer).Event)

	ws := dial(t, srv, u1)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`{"event":"register_user","data":%q}`, u1))))

	env := readEvent(t, observer)
	assert.Equal(t, EventReceiveStatus, env.Event)
	assert.Contains(t, string(env.Data), u1)
	assert.Contains(t, string(env.Data), `"online"`)

	ws.Close()
	env = readEvent(t, observer)
	assert.Equal(t, EventReceiveStatus, env.Event)
	assert.Contains(t, string(env.Data), `"offline"`)
}

func TestWebSocketErrorEvent(t *testing.T) {
	f := newHubFixture(time.Second)
	srv := newWSServer(t, f.hub)
	ws := dial(t, srv, newUserID())

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"register_user","data":"` + newUserID() + `"}`)))

	env := readEvent(t, ws)
	assert.Equal(t, EventRegisterError, env.Event)
	assert.Contains(t, string(env.Data), "Unauthorized")
}
