// Package realtime pushes mutation events to WebSocket rooms.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"wordy/wordy/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventDocumentCreated = "document:created"
	EventDocumentUpdated = "document:updated"
	EventDocumentDeleted = "document:deleted"
	EventRevisionCreated = "revision:created"
	EventRevisionUpdated = "revision:updated"
	EventRevisionDeleted = "revision:deleted"
	EventFavoriteAdded   = "favorite:added"
	EventFavoriteRemoved = "favorite:removed"
)

// Broadcaster delivers an event to every client in room. Delivery is best
// effort: callers log a failed Publish and carry on.
type Broadcaster interface {
	Publish(ctx context.Context, room, event string, payload any) error
}

// Notify publishes event to each room. Failures are logged and otherwise
// ignored.
func Notify(ctx context.Context, b Broadcaster, event string, payload any, rooms ...string) {
	for _, room := range rooms {
		if err := b.Publish(ctx, room, event, payload); err != nil {
			logging.AppLogger.Warn("Realtime publish failed",
				zap.String("room", room), zap.String("event", event), zap.Error(err))
		}
	}
}

// Message is the frame written to clients and relayed between processes.
type Message struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func encode(room, event string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Message{Room: room, Event: event, Payload: body})
}

func UserRoom(userID int) string {
	return "user:" + strconv.Itoa(userID)
}

func SpaceRoom(spaceID uuid.UUID) string {
	return "space:" + spaceID.String()
}

// ParseSpaceRoom extracts the space id from a "space:{id}" room name.
func ParseSpaceRoom(room string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(room, "space:")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
