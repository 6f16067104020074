// Package lobby is the in-memory player/room registry (spec §3, §4.3). A
// Lobby owns all Player and Room instances; sessions and handlers only ever
// hold ids and go through the Lobby to touch state, which keeps the locking
// discipline in one place: one coarse registry lock for membership of the
// maps themselves, and a per-room lock (see room.go) for room mutation.
package lobby

import (
	"sync"
	"time"

	"ringhub/server/internal/clock"
)

// CreateRoomParams bundles the inputs to CreateRoom.
type CreateRoomParams struct {
	Name         string
	Max          uint32
	Private      bool
	PasswordHash string
	CreatorID    string
}

// Observer receives lobby lifecycle events as they happen. It exists so the
// read-only admin event feed can watch the lobby without Lobby importing
// anything transport-shaped, the same split BroadcastTarget uses. A nil
// Observer (the default) means no one is watching; every call site guards
// for it.
type Observer interface {
	RoomCreated(r *Room)
	RoomDestroyed(roomID string)
	PlayerJoined(roomID, playerID string)
	PlayerLeft(roomID, playerID string)
}

// Lobby is the process-wide registry of players and rooms.
type Lobby struct {
	clock *clock.Clock

	mu      sync.RWMutex
	players map[string]*Player
	rooms   map[string]*Room

	nextRoomID uint64

	observer Observer

	distDefaults DistanceDefaults
}

// New returns an empty Lobby. A nil clock falls back to time.Now. Every
// room created by this Lobby starts with DefaultDistanceDefaults for
// positional audio; use NewWithDistanceDefaults to override (main.go's
// positional_audio flags).
func New(c *clock.Clock) *Lobby {
	return NewWithDistanceDefaults(c, DefaultDistanceDefaults)
}

// NewWithDistanceDefaults is New with an explicit positional-audio
// min/max-distance default for rooms that don't override it per-room.
func NewWithDistanceDefaults(c *clock.Clock, dist DistanceDefaults) *Lobby {
	return &Lobby{
		clock:        c,
		players:      make(map[string]*Player),
		rooms:        make(map[string]*Room),
		distDefaults: dist,
	}
}

// SetObserver installs the lobby-wide event listener. Passing nil disables
// event reporting.
func (l *Lobby) SetObserver(o Observer) {
	l.mu.Lock()
	l.observer = o
	l.mu.Unlock()
}

func (l *Lobby) observe() Observer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.observer
}

func (l *Lobby) now() time.Time {
	if l.clock == nil {
		return time.Now()
	}
	return l.clock.Now()
}

// CreatePlayer registers a new player under id, replacing any prior entry
// for that id (a reconnect under the same session id is treated as a fresh
// join by the caller, which is responsible for picking ids).
func (l *Lobby) CreatePlayer(id, name string) *Player {
	p := NewPlayer(id, name)
	l.mu.Lock()
	l.players[id] = p
	l.mu.Unlock()
	return p
}

// RemovePlayer deletes a player from the registry and, if they were in a
// room, removes them from that room too. Returns the room id they left, or
// "" if they were not in a room.
func (l *Lobby) RemovePlayer(id string) string {
	l.mu.Lock()
	p, ok := l.players[id]
	if !ok {
		l.mu.Unlock()
		return ""
	}
	delete(l.players, id)
	l.mu.Unlock()

	roomID := p.RoomID()
	if roomID == "" {
		return ""
	}
	if r, ok := l.GetRoom(roomID); ok {
		r.Leave(id, l.now())
		if o := l.observe(); o != nil {
			o.PlayerLeft(roomID, id)
		}
	}
	return roomID
}

// GetPlayer looks up a player by id.
func (l *Lobby) GetPlayer(id string) (*Player, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.players[id]
	return p, ok
}

// ListPlayers returns a snapshot of every known player.
func (l *Lobby) ListPlayers() []Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Snapshot, 0, len(l.players))
	for _, p := range l.players {
		out = append(out, p.Snapshot())
	}
	return out
}

// CreateRoom allocates a new room and registers it. The room id is a small
// monotonic token rather than a UUID: rooms are a process-local, human
// facing concept (displayed in room lists), unlike session ids.
func (l *Lobby) CreateRoom(params CreateRoomParams) *Room {
	l.mu.Lock()
	l.nextRoomID++
	id := roomIDFromCounter(l.nextRoomID)
	r := NewRoom(id, params.Name, params.Max, params.Private, params.PasswordHash, params.CreatorID, l.now(), l.distDefaults)
	l.rooms[id] = r
	l.mu.Unlock()
	if o := l.observe(); o != nil {
		o.RoomCreated(r)
	}
	return r
}

// DestroyRoom removes a room from the registry and clears current_room on
// every member still present. Returns false if the room did not exist.
func (l *Lobby) DestroyRoom(roomID string) bool {
	l.mu.Lock()
	r, ok := l.rooms[roomID]
	if !ok {
		l.mu.Unlock()
		return false
	}
	delete(l.rooms, roomID)
	l.mu.Unlock()

	for _, memberID := range r.Members() {
		if p, ok := l.GetPlayer(memberID); ok {
			p.SetRoom("", StateInLobby)
		}
	}
	if o := l.observe(); o != nil {
		o.RoomDestroyed(roomID)
	}
	return true
}

// GetRoom looks up a room by id.
func (l *Lobby) GetRoom(id string) (*Room, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.rooms[id]
	return r, ok
}

// ListRooms returns every room currently in the registry. Callers filtering
// for the public room list should additionally check IsPublicJoinable.
func (l *Lobby) ListRooms() []*Room {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Room, 0, len(l.rooms))
	for _, r := range l.rooms {
		out = append(out, r)
	}
	return out
}

// JoinRoom moves playerID into roomID, enforcing Room.Join's invariants and
// the single-room-membership invariant (a player already in another room is
// first removed from it).
func (l *Lobby) JoinRoom(playerID, roomID, passwordHash string) JoinResult {
	p, ok := l.GetPlayer(playerID)
	if !ok {
		return JoinNotFound
	}
	r, ok := l.GetRoom(roomID)
	if !ok {
		return JoinNotFound
	}

	if prev := p.RoomID(); prev != "" && prev != roomID {
		if prevRoom, ok := l.GetRoom(prev); ok {
			prevRoom.Leave(playerID, l.now())
		}
	}

	res := r.Join(playerID, passwordHash, l.now())
	if res == JoinOK {
		p.SetRoom(roomID, StateInRoom)
		if o := l.observe(); o != nil {
			o.PlayerJoined(roomID, playerID)
		}
	}
	return res
}

// LeaveRoom removes playerID from roomID and clears their current_room.
func (l *Lobby) LeaveRoom(playerID, roomID string) bool {
	r, ok := l.GetRoom(roomID)
	if !ok {
		return false
	}
	if !r.Leave(playerID, l.now()) {
		return false
	}
	if p, ok := l.GetPlayer(playerID); ok {
		p.SetRoom("", StateInLobby)
	}
	if o := l.observe(); o != nil {
		o.PlayerLeft(roomID, playerID)
	}
	return true
}

// AllReady reports whether every id in members is both present in the
// player registry and marked ready; it is the callback Room.TryStart needs.
func (l *Lobby) AllReady(members []string) bool {
	for _, id := range members {
		p, ok := l.GetPlayer(id)
		if !ok || !p.IsReady() {
			return false
		}
	}
	return true
}

// BroadcastTarget is the outbound surface a handler needs to fan a message
// out to a room; it is satisfied by the session registry that owns the live
// transport connections (kept separate from Lobby so Lobby stays transport
// agnostic, matching the teacher's core/transport split).
type BroadcastTarget interface {
	SendReliable(sessionID, msgID string, body []byte) error
	SendDatagram(sessionID, msgID string, body []byte) error
}

// BroadcastToRoom fans a message out to every member of roomID, optionally
// skipping the excludeID session (e.g. not echoing a chat line back to its
// sender). The member list is copied under the room lock and the lock is
// released before any send, per spec §4.3/§5.
func (l *Lobby) BroadcastToRoom(target BroadcastTarget, roomID, excludeID, msgID string, body []byte, datagram bool) {
	r, ok := l.GetRoom(roomID)
	if !ok {
		return
	}
	for _, memberID := range r.Members() {
		if memberID == excludeID {
			continue
		}
		if datagram {
			_ = target.SendDatagram(memberID, msgID, body)
		} else {
			_ = target.SendReliable(memberID, msgID, body)
		}
	}
}

func roomIDFromCounter(n uint64) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	if n == 0 {
		return "0"
	}
	buf := make([]byte, 0, 12)
	for n > 0 {
		buf = append(buf, alphabet[n%uint64(len(alphabet))])
		n /= uint64(len(alphabet))
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return "room-" + string(buf)
}
