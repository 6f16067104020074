// Package adminobserver is a read-only fan-out of lobby lifecycle events to
// connected admin clients, adapted from the teacher's internal/ws full
// bidirectional chat/voice feed (internal/ws/handler.go) down to a
// one-directional event stream: admins only ever receive events here, they
// never send anything back over this connection (admin actions go through
// the game protocol's KickPlayer/BanPlayer/etc. handlers instead).
package adminobserver

import (
	"log/slog"
	"sync"
	"time"

	"ringhub/server/internal/lobby"
)

// Event is one lobby lifecycle notice, JSON-encoded to subscribers.
type Event struct {
	Type     string    `json:"type"`
	RoomID   string     `json:"room_id,omitempty"`
	RoomName string     `json:"room_name,omitempty"`
	PlayerID string     `json:"player_id,omitempty"`
	At       time.Time `json:"at"`
}

const (
	EventRoomCreated   = "room_created"
	EventRoomDestroyed = "room_destroyed"
	EventPlayerJoined  = "player_joined"
	EventPlayerLeft    = "player_left"
)

// subscriberBuffer is how many pending events a slow admin client may queue
// before it starts missing events (mirrors the teacher's ws session.Send
// channel sizing pattern — bounded, not unbounded).
const subscriberBuffer = 64

type subscriber struct {
	id   uint64
	send chan Event
}

// Feed is the process-wide broadcaster. It implements lobby.Observer.
type Feed struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	log    *slog.Logger
}

func NewFeed(log *slog.Logger) *Feed {
	if log == nil {
		log = slog.Default()
	}
	return &Feed{subs: make(map[uint64]*subscriber), log: log}
}

// subscribe registers a new listener and returns its channel plus the id
// needed to unsubscribe.
func (f *Feed) subscribe() *subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sub := &subscriber{id: f.nextID, send: make(chan Event, subscriberBuffer)}
	f.subs[sub.id] = sub
	return sub
}

func (f *Feed) unsubscribe(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub, ok := f.subs[id]; ok {
		close(sub.send)
		delete(f.subs, id)
	}
}

func (f *Feed) publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subs {
		select {
		case sub.send <- ev:
		default:
			f.log.Warn("admin observer subscriber is backed up, dropping event", "subscriber", sub.id, "event", ev.Type)
		}
	}
}

// RoomCreated implements lobby.Observer.
func (f *Feed) RoomCreated(r *lobby.Room) {
	f.publish(Event{Type: EventRoomCreated, RoomID: r.ID, RoomName: r.Name, At: time.Now()})
}

// RoomDestroyed implements lobby.Observer.
func (f *Feed) RoomDestroyed(roomID string) {
	f.publish(Event{Type: EventRoomDestroyed, RoomID: roomID, At: time.Now()})
}

// PlayerJoined implements lobby.Observer.
func (f *Feed) PlayerJoined(roomID, playerID string) {
	f.publish(Event{Type: EventPlayerJoined, RoomID: roomID, PlayerID: playerID, At: time.Now()})
}

// PlayerLeft implements lobby.Observer.
func (f *Feed) PlayerLeft(roomID, playerID string) {
	f.publish(Event{Type: EventPlayerLeft, RoomID: roomID, PlayerID: playerID, At: time.Now()})
}
