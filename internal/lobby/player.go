package lobby

import (
	"sync"

	"ringhub/server/internal/codec"
)

// PlayerState is the player's high-level lifecycle state (spec §3).
type PlayerState int

const (
	StateInLobby PlayerState = iota
	StateInRoom
	StateInGame
	StateSpectating
	StateDisconnected
)

func (s PlayerState) String() string {
	switch s {
	case StateInLobby:
		return "InLobby"
	case StateInRoom:
		return "InRoom"
	case StateInGame:
		return "InGame"
	case StateSpectating:
		return "Spectating"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// VoiceState is the per-player voice configuration (spec §3).
type VoiceState struct {
	Muted          bool
	Deafened       bool
	Talking        bool
	VolumeIn       float32
	VolumeOut      float32
	PTTActive      bool
	ActivationMode string // "vad" | "ptt"
}

// CanSpeak derives whether the player's voice should be relayed, per spec
// §3: !muted && (activation_mode != PushToTalk || ptt_active).
func (v VoiceState) CanSpeak() bool {
	if v.Muted {
		return false
	}
	if v.ActivationMode == "ptt" {
		return v.PTTActive
	}
	return true
}

// Player is per-session game state, owned exclusively by the Lobby. Session
// holds only the player id; all mutation goes through Lobby/Room methods so
// there is never a cyclic Session<->Player reference (design note, §9).
type Player struct {
	mu sync.RWMutex

	ID          string
	Name        string
	Position    codec.Vec3
	Rotation    codec.Quat
	Velocity    codec.Vec3
	CurrentRoom string // "" = not in a room
	Ready       bool
	State       PlayerState
	Kills       int
	Deaths      int
	Score       int
	Level       int
	Health      float32
	Voice       VoiceState

	lastPositionSeq uint32
	haveSeq         bool
}

// NewPlayer constructs a freshly-joined player in the lobby state.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Health: 100,
		State:  StateInLobby,
	}
}

// Snapshot is an immutable copy of a Player's fields, safe to read without
// holding the player's lock.
type Snapshot struct {
	ID          string
	Name        string
	Position    codec.Vec3
	Rotation    codec.Quat
	Velocity    codec.Vec3
	CurrentRoom string
	Ready       bool
	State       PlayerState
	Kills       int
	Deaths      int
	Score       int
	Level       int
	Health      float32
	Voice       VoiceState
}

// Snapshot returns a copy of the player's current state.
func (p *Player) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{
		ID: p.ID, Name: p.Name, Position: p.Position, Rotation: p.Rotation,
		Velocity: p.Velocity, CurrentRoom: p.CurrentRoom, Ready: p.Ready,
		State: p.State, Kills: p.Kills, Deaths: p.Deaths, Score: p.Score,
		Level: p.Level, Health: p.Health, Voice: p.Voice,
	}
}

// SetRoom updates the player's current room id (""=none) and state.
func (p *Player) SetRoom(roomID string, state PlayerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CurrentRoom = roomID
	p.State = state
}

// SetReady updates the ready flag.
func (p *Player) SetReady(ready bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Ready = ready
}

// IsReady reports the current ready flag.
func (p *Player) IsReady() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Ready
}

// RoomID returns the player's current room, or "" if none.
func (p *Player) RoomID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.CurrentRoom
}

// UpdateMotion applies a position/rotation/velocity update if seq is newer
// than the last accepted sequence number (spec §4.5/§8 "Datagram
// staleness"). Returns false if the update was stale and therefore dropped.
func (p *Player) UpdateMotion(seq uint32, pos codec.Vec3, rot codec.Quat, vel codec.Vec3) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.haveSeq && seq <= p.lastPositionSeq {
		return false
	}
	p.lastPositionSeq = seq
	p.haveSeq = true
	p.Position = pos
	p.Rotation = rot
	p.Velocity = vel
	return true
}

// ApplyAction updates kill/death/score counters for a classified action type
// (spec §4.5 PlayerAction).
func (p *Player) ApplyAction(actionType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch actionType {
	case "kill":
		p.Kills++
		p.Score += 100
	case "death":
		p.Deaths++
	}
}

// SetVoice replaces the player's voice state wholesale.
func (p *Player) SetVoice(v VoiceState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Voice = v
}

// VoiceSnapshot returns a copy of the player's voice state.
func (p *Player) VoiceSnapshot() VoiceState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Voice
}
