package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"wordy/wordy/middlewares"
	"wordy/wordy/services/realtime"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeWS_ClosingEndsSockets(t *testing.T) {
	hub := realtime.NewHub(nil)
	closing, closeSockets := context.WithCancel(context.Background())
	defer closeSockets()
	ctrl := NewRealtimeController(hub, closing)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middlewares.UserIDKey, 7)
		ctrl.ServeWS(w, r.WithContext(ctx))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	require.Eventually(t, func() bool { return hub.Clients(realtime.UserRoom(7)) == 1 }, 2*time.Second, 10*time.Millisecond)

	closeSockets()

	_, _, err = conn.Read(ctx)
	require.Error(t, err)
	assert.NoError(t, ctx.Err(), "socket closed by the server, not by the test deadline")
	require.Eventually(t, func() bool { return hub.Clients(realtime.UserRoom(7)) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeWS_RequiresUser(t *testing.T) {
	ctrl := NewRealtimeController(realtime.NewHub(nil), context.Background())
	rr := httptest.NewRecorder()
	ctrl.ServeWS(rr, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
