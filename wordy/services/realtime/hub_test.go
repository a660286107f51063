package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

// serveHub exposes hub over a test server; the user id comes from ?uid=.
func serveHub(t *testing.T, hub *Hub) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		uid, _ := strconv.Atoi(r.URL.Query().Get("uid"))
		hub.Serve(r.Context(), conn, uid)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, dest any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dest))
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, data))
}

func waitClients(t *testing.T, hub *Hub, room string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients(room) == n }, 2*time.Second, 10*time.Millisecond)
}

func TestRooms(t *testing.T) {
	assert.Equal(t, "user:7", UserRoom(7))
	id := uuid.New()
	assert.Equal(t, "space:"+id.String(), SpaceRoom(id))

	got, ok := ParseSpaceRoom(SpaceRoom(id))
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = ParseSpaceRoom("user:7")
	assert.False(t, ok)
	_, ok = ParseSpaceRoom("space:nope")
	assert.False(t, ok)
}

func TestHub_DeliversToUserRoom(t *testing.T) {
	hub := NewHub(nil)
	url := serveHub(t, hub)
	conn := dial(t, url+"?uid=7")
	waitClients(t, hub, UserRoom(7), 1)

	require.NoError(t, hub.Publish(context.Background(), UserRoom(7), EventFavoriteAdded, map[string]string{"document_id": "d1"}))
	require.NoError(t, hub.Publish(context.Background(), UserRoom(8), EventFavoriteAdded, map[string]string{"document_id": "other"}))

	var msg Message
	readJSON(t, conn, &msg)
	assert.Equal(t, UserRoom(7), msg.Room)
	assert.Equal(t, EventFavoriteAdded, msg.Event)
	assert.JSONEq(t, `{"document_id":"d1"}`, string(msg.Payload))
}

func TestHub_JoinRequiresAuthorization(t *testing.T) {
	allowed := uuid.New()
	hub := NewHub(func(ctx context.Context, userID int, room string) error {
		id, ok := ParseSpaceRoom(room)
		if !ok || id != allowed {
			return errors.New("forbidden")
		}
		return nil
	})
	url := serveHub(t, hub)
	conn := dial(t, url+"?uid=1")
	waitClients(t, hub, UserRoom(1), 1)

	sendJSON(t, conn, controlFrame{Type: "join", Room: SpaceRoom(uuid.New())})
	var reply replyFrame
	readJSON(t, conn, &reply)
	assert.Equal(t, "error", reply.Type)

	sendJSON(t, conn, controlFrame{Type: "join", Room: SpaceRoom(allowed)})
	readJSON(t, conn, &reply)
	assert.Equal(t, "joined", reply.Type)
	assert.Equal(t, 1, hub.Clients(SpaceRoom(allowed)))

	require.NoError(t, hub.Publish(context.Background(), SpaceRoom(allowed), EventDocumentUpdated, map[string]string{"id": "x"}))
	var msg Message
	readJSON(t, conn, &msg)
	assert.Equal(t, EventDocumentUpdated, msg.Event)

	sendJSON(t, conn, controlFrame{Type: "leave", Room: SpaceRoom(allowed)})
	readJSON(t, conn, &reply)
	assert.Equal(t, "left", reply.Type)
	assert.Equal(t, 0, hub.Clients(SpaceRoom(allowed)))
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub := NewHub(nil)
	url := serveHub(t, hub)
	conn := dial(t, url+"?uid=3")
	waitClients(t, hub, UserRoom(3), 1)

	conn.Close(websocket.StatusNormalClosure, "bye")
	waitClients(t, hub, UserRoom(3), 0)
}

func TestHub_FullBufferDrops(t *testing.T) {
	hub := NewHub(nil)
	c := &client{userID: 1, send: make(chan []byte, 1), rooms: map[string]struct{}{}}
	hub.join(c, UserRoom(1))

	hub.Deliver(UserRoom(1), []byte("first"))
	hub.Deliver(UserRoom(1), []byte("second"))

	assert.Len(t, c.send, 1)
	assert.Equal(t, "first", string(<-c.send))
}

func TestRedisBroadcaster_RelaysIntoHub(t *testing.T) {
	mr := miniredis.RunT(t)
	hub := NewHub(nil)
	b, err := NewRedisBroadcaster("redis://"+mr.Addr(), "wordy:events", hub)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, b.Start(ctx))

	url := serveHub(t, hub)
	conn := dial(t, url+"?uid=5")
	waitClients(t, hub, UserRoom(5), 1)

	require.NoError(t, b.Publish(ctx, UserRoom(5), EventRevisionCreated, map[string]string{"id": "r1"}))

	var msg Message
	readJSON(t, conn, &msg)
	assert.Equal(t, EventRevisionCreated, msg.Event)
	assert.JSONEq(t, `{"id":"r1"}`, string(msg.Payload))
}

func TestNewRedisBroadcaster_BadURL(t *testing.T) {
	_, err := NewRedisBroadcaster("not a url", "c", NewHub(nil))
	assert.Error(t, err)
}
