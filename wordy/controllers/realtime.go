package controllers

import (
	"context"
	"net/http"
	"wordy/wordy/middlewares"
	"wordy/wordy/services/realtime"
	"wordy/wordy/utils/logging"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

type RealtimeController struct {
	hub *realtime.Hub
	// closing ends every open socket when it is cancelled.
	closing context.Context
}

func NewRealtimeController(hub *realtime.Hub, closing context.Context) *RealtimeController {
	return &RealtimeController{hub: hub, closing: closing}
}

// ServeWS upgrades an authenticated request and attaches it to the hub.
func (c *RealtimeController) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := middlewares.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		logging.AppLogger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(c.closing, cancel)
	defer stop()
	c.hub.Serve(ctx, conn, userID)
}
