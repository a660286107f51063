package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
	"wordy/wordy/utils/logging"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	defaultSendBuffer = 32
	writeTimeout      = 10 * time.Second
)

// RoomAuthorizer decides whether userID may join room. Clients are always
// joined to their own user room without asking.
type RoomAuthorizer func(ctx context.Context, userID int, room string) error

// Hub fans events out to the WebSocket clients of this process.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*client]struct{}
	authorize  RoomAuthorizer
	sendBuffer int
}

type client struct {
	userID int
	send   chan []byte
	// rooms is guarded by Hub.mu
	rooms map[string]struct{}
}

// controlFrame is what clients send to join or leave rooms.
type controlFrame struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type replyFrame struct {
	Type    string `json:"type"`
	Room    string `json:"room,omitempty"`
	Message string `json:"message,omitempty"`
}

func NewHub(authorize RoomAuthorizer) *Hub {
	if authorize == nil {
		authorize = func(context.Context, int, string) error {
			return errors.New("joining rooms is disabled")
		}
	}
	return &Hub{
		rooms:      make(map[string]map[*client]struct{}),
		authorize:  authorize,
		sendBuffer: defaultSendBuffer,
	}
}

func (h *Hub) Publish(ctx context.Context, room, event string, payload any) error {
	data, err := encode(room, event, payload)
	if err != nil {
		return err
	}
	h.Deliver(room, data)
	return nil
}

// Deliver writes an encoded frame to every client in room. A client whose
// buffer is full misses the frame.
func (h *Hub) Deliver(room string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- data:
		default:
			logging.AppLogger.Warn("Dropped realtime frame for slow client",
				zap.String("room", room), zap.Int("user_id", c.userID))
		}
	}
}

// Clients is the number of connections currently in room.
func (h *Hub) Clients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) join(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
}

// Serve attaches conn to the hub for userID and blocks until the connection
// ends. The client starts in its user room and may join space rooms.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID int) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := &client{
		userID: userID,
		send:   make(chan []byte, h.sendBuffer),
		rooms:  make(map[string]struct{}),
	}
	h.join(c, UserRoom(userID))
	defer h.unregister(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, conn, c)
		cancel()
	}()

	h.readLoop(ctx, conn, c)
	cancel()
	<-done
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Hub) writeLoop(ctx context.Context, conn *websocket.Conn, c *client) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-c.send:
			wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, data)
			wcancel()
			if err != nil {
				logging.ErrorLogger.Error("websocket write error", zap.Int("user_id", c.userID), zap.Error(err))
				return
			}
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, conn *websocket.Conn, c *client) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				logging.ErrorLogger.Error("websocket read error", zap.Int("user_id", c.userID), zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			h.reply(c, replyFrame{Type: "error", Message: "unsupported data"})
			continue
		}
		var frame controlFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.reply(c, replyFrame{Type: "error", Message: "invalid json"})
			continue
		}
		switch frame.Type {
		case "join":
			if err := h.authorize(ctx, c.userID, frame.Room); err != nil {
				h.reply(c, replyFrame{Type: "error", Room: frame.Room, Message: err.Error()})
				continue
			}
			h.join(c, frame.Room)
			h.reply(c, replyFrame{Type: "joined", Room: frame.Room})
		case "leave":
			if frame.Room == UserRoom(c.userID) {
				h.reply(c, replyFrame{Type: "error", Room: frame.Room, Message: "cannot leave own room"})
				continue
			}
			h.leave(c, frame.Room)
			h.reply(c, replyFrame{Type: "left", Room: frame.Room})
		default:
			h.reply(c, replyFrame{Type: "error", Message: "unknown frame type"})
		}
	}
}

func (h *Hub) reply(c *client, frame replyFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
