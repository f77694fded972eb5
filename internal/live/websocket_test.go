package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lostfound/internal/domain/access"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWSServer(t *testing.T, sess access.Session) (*Hub, *access.SessionHub, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(nil, 8)
	sessions := access.NewSessionHub()
	registry := NewRegistry()
	registry.Register(CollectionNotifications, func(ctx context.Context, filters map[string]string) ([]any, error) {
		return []any{map[string]string{"id": "n0", "user_id": filters["user_id"]}}, nil
	})

	r := gin.New()
	r.Use(func(c *gin.Context) { access.SetSession(c, sess) })
	NewHandler(hub, registry, sessions, nil).RegisterRoutes(&r.RouterGroup)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return hub, sessions, conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out map[string]any
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestWebSocket_SnapshotThenChange(t *testing.T) {
	hub, _, conn := setupWSServer(t, access.Session{UserID: "u1"})

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "subscribe", "id": "s1", "collection": CollectionNotifications,
	}))

	snap := readJSON(t, conn)
	assert.Equal(t, "snapshot", snap["type"])
	assert.Equal(t, "s1", snap["id"])
	records := snap["records"].([]any)
	require.Len(t, records, 1)
	assert.Equal(t, "u1", records[0].(map[string]any)["user_id"])

	hub.Publish(Change{Collection: CollectionNotifications, Op: OpCreated, ID: "other", Fields: map[string]string{"user_id": "u2"}})
	hub.Publish(Change{Collection: CollectionNotifications, Op: OpCreated, ID: "n1", Fields: map[string]string{"user_id": "u1"}})

	msg := readJSON(t, conn)
	assert.Equal(t, "change", msg["type"])
	change := msg["change"].(map[string]any)
	assert.Equal(t, "n1", change["id"])
	assert.Equal(t, "created", change["op"])
}

func TestWebSocket_ForbiddenCollection(t *testing.T) {
	_, _, conn := setupWSServer(t, access.Session{UserID: "u1"})

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "subscribe", "id": "s1", "collection": CollectionActivities,
	}))

	msg := readJSON(t, conn)
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, "FORBIDDEN", msg["code"])
}

func TestWebSocket_ClosedOnSignOut(t *testing.T) {
	_, sessions, conn := setupWSServer(t, access.Session{UserID: "u1", TokenID: "t1"})

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	assert.Equal(t, "pong", readJSON(t, conn)["type"])

	require.Eventually(t, func() bool { return sessions.Len() == 1 }, time.Second, 5*time.Millisecond)
	sessions.Publish(access.Event{Type: access.EventSignedOut, Session: access.Session{UserID: "u1", TokenID: "t1"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestWebSocket_ClosedOnHandlerClose(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewHub(nil, 8), NewRegistry(), nil, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) { access.SetSession(c, access.Session{UserID: "u1"}) })
	h.RegisterRoutes(&r.RouterGroup)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	assert.Equal(t, "pong", readJSON(t, conn)["type"])

	h.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
