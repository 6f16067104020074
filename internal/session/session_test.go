package session

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func TestSessionSendReliableWritesFramedBody(t *testing.T) {
	var buf bytes.Buffer
	s := New(uuid.New(), &buf, nil, nil)
	if err := s.SendReliable("PingRequest", []byte("hi")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected bytes written to stream")
	}
}

func TestSessionSendDatagramRequiresBoundAddress(t *testing.T) {
	var buf bytes.Buffer
	s := New(uuid.New(), &buf, nil, nil)
	if err := s.SendDatagram("PlayerPositionBroadcast", []byte("x")); err == nil {
		t.Fatal("expected error before datagram address is bound")
	}
}

func TestSessionAllowReliableRespectsLimiter(t *testing.T) {
	var buf bytes.Buffer
	lim := rate.NewLimiter(rate.Limit(0), 1) // one token, never refills
	s := New(uuid.New(), &buf, lim, nil)
	if !s.AllowReliable() {
		t.Fatal("expected first call to consume the single token")
	}
	if s.AllowReliable() {
		t.Fatal("expected second call to be denied")
	}
}

func TestSessionCloseInvokesCallbackOnce(t *testing.T) {
	var buf bytes.Buffer
	s := New(uuid.New(), &buf, nil, nil)
	calls := 0
	s.SetOnClose(func(reason string) { calls++ })
	s.Close("test")
	s.Close("test-again")
	if calls != 1 {
		t.Fatalf("expected onClose to fire exactly once, got %d", calls)
	}
	select {
	case <-s.Closed():
	default:
		t.Fatal("expected Closed() channel to be closed")
	}
}

func TestRegistryGetAndClose(t *testing.T) {
	reg := NewRegistry()
	var buf bytes.Buffer
	s := New(uuid.New(), &buf, nil, nil)
	reg.Add(s)

	if _, ok := reg.Get(s.SessionID()); !ok {
		t.Fatal("expected registered session to be found")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", reg.Len())
	}

	reg.Close(s.SessionID(), "kicked")
	if _, ok := reg.Get(s.SessionID()); ok {
		t.Fatal("expected session to be removed from registry after close")
	}
	if reg.Len() != 0 {
		t.Fatalf("expected 0 sessions after close, got %d", reg.Len())
	}
}

func TestPrincipalsDefaultsToUserRole(t *testing.T) {
	p := NewPrincipals()
	got := p.PrincipalFor("unknown-session")
	if got.Role != "USER" {
		t.Fatalf("expected default role USER, got %q", got.Role)
	}
}
