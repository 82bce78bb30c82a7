package alerts

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHubServer(t *testing.T, hub *Hub) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := hub.HandleConnection(w, r, "admin-1"); err != nil {
			t.Logf("handle connection: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialHub(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func hasConnections(hub *Hub, n int) func() bool {
	return func() bool { return hub.ConnectionCount() == n }
}

func TestHub_BroadcastReachesSubscribers(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	defer hub.Close()
	url := newHubServer(t, hub)

	first := dialHub(t, url)
	second := dialHub(t, url)
	require.Eventually(t, hasConnections(hub, 2), time.Second, 10*time.Millisecond)

	alert := New(uuid.New(), "low confidence score: 0.30", LevelWarning)
	require.NoError(t, hub.Broadcast(Event{Type: EventRaised, Alert: alert, Timestamp: time.Now()}))

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, EventRaised, got.Type)
		assert.Equal(t, alert.ID, got.Alert.ID)
		assert.Equal(t, LevelWarning, got.Alert.Level)
	}
}

func TestHub_UnregistersClosedSubscribers(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	defer hub.Close()
	url := newHubServer(t, hub)

	conn := dialHub(t, url)
	require.Eventually(t, hasConnections(hub, 1), time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, hasConnections(hub, 0), 2*time.Second, 10*time.Millisecond)
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	defer hub.Close()

	slow := &Connection{ID: "slow", Send: make(chan Event)}
	hub.register <- slow
	require.Eventually(t, hasConnections(hub, 1), time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(Event{Type: EventRaised}))
	require.Eventually(t, hasConnections(hub, 0), time.Second, 10*time.Millisecond)

	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(nil, zap.NewNop())
	url := newHubServer(t, hub)

	conn := dialHub(t, url)
	require.Eventually(t, hasConnections(hub, 1), time.Second, 10*time.Millisecond)

	hub.Close()
	hub.Close()

	assert.ErrorIs(t, hub.Broadcast(Event{Type: EventRaised}), ErrHubClosed)
	assert.Eventually(t, hasConnections(hub, 0), time.Second, 10*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	hub := NewHub([]string{"https://admin.example.edu"}, zap.NewNop())
	defer hub.Close()
	url := newHubServer(t, hub)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, hub.ConnectionCount())
}
