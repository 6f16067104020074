package lobby

import (
	"testing"
	"time"
)

func TestRoomJoinEnforcesCapacity(t *testing.T) {
	r := NewRoom("r1", "arena", 2, false, "", "owner", time.Now(), DefaultDistanceDefaults)
	if res := r.Join("p1", "", time.Now()); res != JoinOK {
		t.Fatalf("expected JoinOK, got %v", res)
	}
	if res := r.Join("p2", "", time.Now()); res != JoinOK {
		t.Fatalf("expected JoinOK, got %v", res)
	}
	if res := r.Join("p3", "", time.Now()); res != JoinFull {
		t.Fatalf("expected JoinFull, got %v", res)
	}
}

func TestRoomJoinRejectsWrongPassword(t *testing.T) {
	r := NewRoom("r1", "vip", 4, true, "secret", "owner", time.Now(), DefaultDistanceDefaults)
	if res := r.Join("p1", "wrong", time.Now()); res != JoinWrongPassword {
		t.Fatalf("expected JoinWrongPassword, got %v", res)
	}
	if res := r.Join("p1", "secret", time.Now()); res != JoinOK {
		t.Fatalf("expected JoinOK, got %v", res)
	}
}

func TestRoomJoinRejectsDuplicateMember(t *testing.T) {
	r := NewRoom("r1", "arena", 4, false, "", "owner", time.Now(), DefaultDistanceDefaults)
	r.Join("p1", "", time.Now())
	if res := r.Join("p1", "", time.Now()); res != JoinAlreadyInRoom {
		t.Fatalf("expected JoinAlreadyInRoom, got %v", res)
	}
}

func TestRoomJoinBlockedDuringInProgressWithoutLateJoin(t *testing.T) {
	r := NewRoom("r1", "arena", 4, false, "", "owner", time.Now(), DefaultDistanceDefaults)
	r.Join("p1", "", time.Now())
	if !r.TryStart(func(members []string) bool { return true }) {
		t.Fatalf("expected TryStart to succeed")
	}
	r.MarkInProgress()
	if res := r.Join("p2", "", time.Now()); res != JoinNotJoinable {
		t.Fatalf("expected JoinNotJoinable, got %v", res)
	}
}

func TestRoomJoinAllowedDuringInProgressWithLateJoin(t *testing.T) {
	r := NewRoom("r1", "arena", 4, false, "", "owner", time.Now(), DefaultDistanceDefaults)
	r.SetSetting("late_join", BoolSetting(true))
	r.Join("p1", "", time.Now())
	r.TryStart(func(members []string) bool { return true })
	r.MarkInProgress()
	if res := r.Join("p2", "", time.Now()); res != JoinOK {
		t.Fatalf("expected JoinOK with late_join enabled, got %v", res)
	}
}

func TestRoomMembersPreservesJoinOrder(t *testing.T) {
	r := NewRoom("r1", "arena", 8, false, "", "owner", time.Now(), DefaultDistanceDefaults)
	for _, id := range []string{"p1", "p2", "p3"} {
		r.Join(id, "", time.Now())
	}
	got := r.Members()
	want := []string{"p1", "p2", "p3"}
	for i, id := range want {
		if got[i] != id {
			t.Fatalf("members[%d] = %q, want %q (got %v)", i, got[i], id, got)
		}
	}
}

func TestRoomLeaveRemovesMember(t *testing.T) {
	r := NewRoom("r1", "arena", 4, false, "", "owner", time.Now(), DefaultDistanceDefaults)
	r.Join("p1", "", time.Now())
	r.Join("p2", "", time.Now())
	if !r.Leave("p1", time.Now()) {
		t.Fatalf("expected Leave to report true")
	}
	if r.Has("p1") {
		t.Fatalf("p1 should no longer be a member")
	}
	if r.Leave("p1", time.Now()) {
		t.Fatalf("expected Leave of absent member to report false")
	}
	if r.Count() != 1 {
		t.Fatalf("expected count 1, got %d", r.Count())
	}
}

func TestRoomTryStartRequiresAllReady(t *testing.T) {
	r := NewRoom("r1", "arena", 4, false, "", "owner", time.Now(), DefaultDistanceDefaults)
	r.Join("p1", "", time.Now())
	if r.TryStart(func(members []string) bool { return false }) {
		t.Fatalf("expected TryStart to fail when not all ready")
	}
	if r.CurrentState() != RoomWaiting {
		t.Fatalf("expected state to remain Waiting")
	}
	if !r.TryStart(func(members []string) bool { return true }) {
		t.Fatalf("expected TryStart to succeed")
	}
	if r.CurrentState() != RoomStarting {
		t.Fatalf("expected state Starting, got %v", r.CurrentState())
	}
}

func TestRoomStateMachineFullLifecycle(t *testing.T) {
	r := NewRoom("r1", "arena", 4, false, "", "owner", time.Now(), DefaultDistanceDefaults)
	r.Join("p1", "", time.Now())
	if !r.TryStart(func(members []string) bool { return true }) {
		t.Fatalf("TryStart failed")
	}
	if !r.MarkInProgress() {
		t.Fatalf("MarkInProgress failed")
	}
	if !r.Pause() {
		t.Fatalf("Pause failed")
	}
	if !r.Resume() {
		t.Fatalf("Resume failed")
	}
	if !r.Finish() {
		t.Fatalf("Finish failed")
	}
	if r.CurrentState() != RoomFinished {
		t.Fatalf("expected Finished, got %v", r.CurrentState())
	}
	if r.Pause() {
		t.Fatalf("Pause should fail from Finished")
	}
}

func TestRoomIsPublicJoinable(t *testing.T) {
	r := NewRoom("r1", "arena", 1, false, "", "owner", time.Now(), DefaultDistanceDefaults)
	if !r.IsPublicJoinable() {
		t.Fatalf("expected empty public room to be joinable")
	}
	r.Join("p1", "", time.Now())
	if r.IsPublicJoinable() {
		t.Fatalf("expected full room to not be joinable")
	}

	priv := NewRoom("r2", "vip", 4, true, "secret", "owner", time.Now(), DefaultDistanceDefaults)
	if priv.IsPublicJoinable() {
		t.Fatalf("expected private room to not be publicly joinable")
	}
}

func TestRoomDistanceSettingsDefaults(t *testing.T) {
	r := NewRoom("r1", "arena", 4, false, "", "owner", time.Now(), DefaultDistanceDefaults)
	min, max := r.DistanceSettings()
	if min != 1.0 || max != 50.0 {
		t.Fatalf("expected defaults (1, 50), got (%v, %v)", min, max)
	}
	r.SetSetting("min_dist", FloatSetting(2))
	r.SetSetting("max_dist", FloatSetting(100))
	min, max = r.DistanceSettings()
	if min != 2 || max != 100 {
		t.Fatalf("expected overridden (2, 100), got (%v, %v)", min, max)
	}
}
