package lobby

import (
	"sync"
	"time"
)

// RoomState is the room's game-lifecycle state (spec §3, §4.3).
type RoomState int

const (
	RoomWaiting RoomState = iota
	RoomStarting
	RoomInProgress
	RoomPaused
	RoomFinished
)

func (s RoomState) String() string {
	switch s {
	case RoomWaiting:
		return "Waiting"
	case RoomStarting:
		return "Starting"
	case RoomInProgress:
		return "InProgress"
	case RoomPaused:
		return "Paused"
	case RoomFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// JoinResult enumerates join_room outcomes (spec §4.3).
type JoinResult int

const (
	JoinOK JoinResult = iota
	JoinFull
	JoinNotFound
	JoinWrongPassword
	JoinAlreadyInRoom
	JoinNotJoinable // Starting|InProgress without late_join
)

// Room holds a bounded member set and is the unit of broadcast. A single
// coarse lock guards the member set and state transitions (spec §4.3); the
// Lobby holds a separate lock for the room registry itself.
type Room struct {
	mu sync.RWMutex

	ID           string
	Name         string
	Max          uint32
	Private      bool
	PasswordHash string
	CreatorID    string
	State        RoomState
	CreatedAt    time.Time
	LastActivity time.Time
	Settings     map[string]SettingValue

	members []string // join order preserved for deterministic broadcast enumeration
	present map[string]struct{}
}

// NewRoom constructs a room in the Waiting state.
func NewRoom(id, name string, max uint32, private bool, passwordHash, creatorID string, now time.Time, dist DistanceDefaults) *Room {
	return &Room{
		ID: id, Name: name, Max: max, Private: private, PasswordHash: passwordHash,
		CreatorID: creatorID, State: RoomWaiting, CreatedAt: now, LastActivity: now,
		Settings: defaultSettings(dist),
		present:  make(map[string]struct{}),
	}
}

func (r *Room) touch(now time.Time) { r.LastActivity = now }

// Setting reads a room setting, returning ok=false if unset.
func (r *Room) Setting(key string) (SettingValue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.Settings[key]
	return v, ok
}

// SetSetting writes an arbitrary room setting.
func (r *Room) SetSetting(key string, v SettingValue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Settings[key] = v
}

// lateJoinLocked reports whether late_join is enabled. Caller must hold mu.
func (r *Room) lateJoinLocked() bool {
	v, ok := r.Settings["late_join"]
	return ok && v.Kind == "bool" && v.B
}

// distanceSettingsLocked returns min/max listening distance for positional
// gain (§4.3), falling back to spec defaults. Caller must hold mu.
func (r *Room) distanceSettingsLocked() (min, max float64) {
	min, max = 1.0, 50.0
	if v, ok := r.Settings["min_dist"]; ok && v.Kind == "float" {
		min = v.F
	}
	if v, ok := r.Settings["max_dist"]; ok && v.Kind == "float" {
		max = v.F
	}
	return min, max
}

// DistanceSettings is the exported, locked form of distanceSettingsLocked.
func (r *Room) DistanceSettings() (min, max float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.distanceSettingsLocked()
}

// Join adds playerID to the room's member set, enforcing capacity, state,
// and password invariants (spec §4.3 join_room). now is used for
// last_activity bookkeeping.
func (r *Room) Join(playerID, passwordHash string, now time.Time) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, already := r.present[playerID]; already {
		return JoinAlreadyInRoom
	}
	if r.Private && r.PasswordHash != "" && r.PasswordHash != passwordHash {
		return JoinWrongPassword
	}
	if (r.State == RoomStarting || r.State == RoomInProgress) && !r.lateJoinLocked() {
		return JoinNotJoinable
	}
	if uint32(len(r.members)) >= r.Max {
		return JoinFull
	}

	r.members = append(r.members, playerID)
	r.present[playerID] = struct{}{}
	r.touch(now)
	return JoinOK
}

// Leave removes playerID from the member set. Returns true if the player
// was actually a member.
func (r *Room) Leave(playerID string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.present[playerID]; !ok {
		return false
	}
	delete(r.present, playerID)
	for i, id := range r.members {
		if id == playerID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	r.touch(now)
	return true
}

// Members returns a join-order-preserving snapshot of member ids, safe to
// range over after releasing the room lock (spec §4.3/§5: broadcast holds
// the lock only long enough to copy the list).
func (r *Room) Members() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.members))
	copy(out, r.members)
	return out
}

// Count returns the current member count.
func (r *Room) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Has reports whether playerID is currently a member.
func (r *Room) Has(playerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.present[playerID]
	return ok
}

// CurrentState returns the room's lifecycle state.
func (r *Room) CurrentState() RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State
}

// TryStart transitions Waiting -> Starting iff every member is ready, per
// the allReady callback (the Lobby supplies it, since only it can look up
// each member's Player). Returns false if the room was not in Waiting or a
// member was not ready.
func (r *Room) TryStart(allReady func(members []string) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State != RoomWaiting {
		return false
	}
	if !allReady(r.members) {
		return false
	}
	r.State = RoomStarting
	return true
}

// MarkInProgress transitions Starting -> InProgress. Called immediately
// after the GameStartedBroadcast has been emitted (spec §4.3).
func (r *Room) MarkInProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State != RoomStarting {
		return false
	}
	r.State = RoomInProgress
	return true
}

// Pause transitions InProgress -> Paused.
func (r *Room) Pause() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State != RoomInProgress {
		return false
	}
	r.State = RoomPaused
	return true
}

// Resume transitions Paused -> InProgress.
func (r *Room) Resume() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State != RoomPaused {
		return false
	}
	r.State = RoomInProgress
	return true
}

// Finish transitions InProgress|Paused -> Finished, making the room
// eligible for cleanup.
func (r *Room) Finish() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.State != RoomInProgress && r.State != RoomPaused {
		return false
	}
	r.State = RoomFinished
	return true
}

// IsPublicJoinable reports whether the room should appear in a room-list
// snapshot (spec §4.5 GetRoomListRequest: public, non-full, non-InProgress).
func (r *Room) IsPublicJoinable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Private || r.State == RoomInProgress {
		return false
	}
	return uint32(len(r.members)) < r.Max
}
