// Package realtimetest records published events for assertions.
package realtimetest

import (
	"context"
	"sync"
)

type Event struct {
	Room    string
	Name    string
	Payload any
}

// Recorder is a Broadcaster that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, room, event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Room: room, Name: event, Payload: payload})
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names lists the event names published to room, in order.
func (r *Recorder) Names(room string) []string {
	var names []string
	for _, e := range r.Events() {
		if e.Room == room {
			names = append(names, e.Name)
		}
	}
	return names
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
