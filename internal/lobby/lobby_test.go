package lobby

import (
	"testing"

	"ringhub/server/internal/codec"
)

func TestCreateJoinStartFlow(t *testing.T) {
	l := New(nil)
	host := l.CreatePlayer("p1", "host")
	guest := l.CreatePlayer("p2", "guest")

	r := l.CreateRoom(CreateRoomParams{Name: "arena", Max: 4, CreatorID: host.ID})

	if res := l.JoinRoom(host.ID, r.ID, ""); res != JoinOK {
		t.Fatalf("host join: %v", res)
	}
	if res := l.JoinRoom(guest.ID, r.ID, ""); res != JoinOK {
		t.Fatalf("guest join: %v", res)
	}

	host.SetReady(true)
	guest.SetReady(true)

	if !r.TryStart(l.AllReady) {
		t.Fatalf("expected TryStart to succeed once all ready")
	}
	if !r.MarkInProgress() {
		t.Fatalf("expected MarkInProgress to succeed")
	}
	if r.CurrentState() != RoomInProgress {
		t.Fatalf("expected room InProgress, got %v", r.CurrentState())
	}
}

func TestJoinPrivateRoomWrongPassword(t *testing.T) {
	l := New(nil)
	l.CreatePlayer("p1", "alice")
	r := l.CreateRoom(CreateRoomParams{Name: "vip", Max: 4, Private: true, PasswordHash: "secret"})

	if res := l.JoinRoom("p1", r.ID, "nope"); res != JoinWrongPassword {
		t.Fatalf("expected JoinWrongPassword, got %v", res)
	}
	if res := l.JoinRoom("p1", r.ID, "secret"); res != JoinOK {
		t.Fatalf("expected JoinOK, got %v", res)
	}
}

func TestJoinRoomMovesPlayerFromPreviousRoom(t *testing.T) {
	l := New(nil)
	l.CreatePlayer("p1", "alice")
	r1 := l.CreateRoom(CreateRoomParams{Name: "a", Max: 4})
	r2 := l.CreateRoom(CreateRoomParams{Name: "b", Max: 4})

	l.JoinRoom("p1", r1.ID, "")
	if res := l.JoinRoom("p1", r2.ID, ""); res != JoinOK {
		t.Fatalf("expected JoinOK into second room, got %v", res)
	}
	if r1.Has("p1") {
		t.Fatalf("player should have left the first room")
	}
	if !r2.Has("p1") {
		t.Fatalf("player should be a member of the second room")
	}
}

func TestDestroyRoomClearsMemberCurrentRoom(t *testing.T) {
	l := New(nil)
	p := l.CreatePlayer("p1", "alice")
	r := l.CreateRoom(CreateRoomParams{Name: "a", Max: 4})
	l.JoinRoom(p.ID, r.ID, "")

	if !l.DestroyRoom(r.ID) {
		t.Fatalf("expected DestroyRoom to succeed")
	}
	if p.RoomID() != "" {
		t.Fatalf("expected player's current_room cleared, got %q", p.RoomID())
	}
	if _, ok := l.GetRoom(r.ID); ok {
		t.Fatalf("expected room to be gone from the registry")
	}
}

func TestRemovePlayerLeavesRoom(t *testing.T) {
	l := New(nil)
	p := l.CreatePlayer("p1", "alice")
	r := l.CreateRoom(CreateRoomParams{Name: "a", Max: 4})
	l.JoinRoom(p.ID, r.ID, "")

	left := l.RemovePlayer(p.ID)
	if left != r.ID {
		t.Fatalf("expected RemovePlayer to report room %q, got %q", r.ID, left)
	}
	if r.Has(p.ID) {
		t.Fatalf("expected player removed from room membership")
	}
	if _, ok := l.GetPlayer(p.ID); ok {
		t.Fatalf("expected player removed from registry")
	}
}

type fakeTarget struct {
	reliableSent map[string][]string
	datagramSent map[string][]string
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{reliableSent: map[string][]string{}, datagramSent: map[string][]string{}}
}

func (f *fakeTarget) SendReliable(sessionID, msgID string, _ []byte) error {
	f.reliableSent[sessionID] = append(f.reliableSent[sessionID], msgID)
	return nil
}

func (f *fakeTarget) SendDatagram(sessionID, msgID string, _ []byte) error {
	f.datagramSent[sessionID] = append(f.datagramSent[sessionID], msgID)
	return nil
}

func TestBroadcastToRoomExcludesSenderAndCoversAllMembers(t *testing.T) {
	l := New(nil)
	l.CreatePlayer("p1", "a")
	l.CreatePlayer("p2", "b")
	l.CreatePlayer("p3", "c")
	r := l.CreateRoom(CreateRoomParams{Name: "arena", Max: 8})
	l.JoinRoom("p1", r.ID, "")
	l.JoinRoom("p2", r.ID, "")
	l.JoinRoom("p3", r.ID, "")

	target := newFakeTarget()
	l.BroadcastToRoom(target, r.ID, "p1", codec.IDChatMessage, nil, false)

	if _, sent := target.reliableSent["p1"]; sent {
		t.Fatalf("excluded sender should not receive the broadcast")
	}
	for _, id := range []string{"p2", "p3"} {
		if len(target.reliableSent[id]) != 1 || target.reliableSent[id][0] != codec.IDChatMessage {
			t.Fatalf("expected %s to receive one ChatMessage broadcast, got %v", id, target.reliableSent[id])
		}
	}
}

func TestPlayerPositionUpdateRejectsStaleSequence(t *testing.T) {
	l := New(nil)
	p := l.CreatePlayer("p1", "a")

	if !p.UpdateMotion(5, codec.Vec3{X: 1}, codec.Quat{}, codec.Vec3{}) {
		t.Fatalf("expected first update to apply")
	}
	if p.UpdateMotion(5, codec.Vec3{X: 2}, codec.Quat{}, codec.Vec3{}) {
		t.Fatalf("expected equal sequence number to be rejected as stale")
	}
	if p.UpdateMotion(3, codec.Vec3{X: 3}, codec.Quat{}, codec.Vec3{}) {
		t.Fatalf("expected older sequence number to be rejected as stale")
	}
	if !p.UpdateMotion(6, codec.Vec3{X: 4}, codec.Quat{}, codec.Vec3{}) {
		t.Fatalf("expected newer sequence number to apply")
	}
	if p.Snapshot().Position.X != 4 {
		t.Fatalf("expected position to reflect the latest accepted update")
	}
}
