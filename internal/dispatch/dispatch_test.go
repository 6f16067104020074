package dispatch

import (
	"context"
	"errors"
	"testing"

	"ringhub/server/internal/codec"
)

type fakeSender struct {
	id   string
	sent []string
}

func (f *fakeSender) SessionID() string { return f.id }
func (f *fakeSender) SendReliable(id string, _ []byte) error {
	f.sent = append(f.sent, id)
	return nil
}
func (f *fakeSender) SendDatagram(id string, _ []byte) error {
	f.sent = append(f.sent, id)
	return nil
}

func TestDispatchInvokesRegisteredHandler(t *testing.T) {
	d := New(nil)
	var gotName string
	Register(d, codec.IDCreateRoomRequest, codec.DecodeCreateRoomRequest,
		func(_ context.Context, s Sender, body codec.CreateRoomRequest) error {
			gotName = body.Name
			return s.SendReliable(codec.IDCreateRoomResponse, nil)
		})

	s := &fakeSender{id: "s1"}
	frame := codec.Frame{ID: codec.IDCreateRoomRequest, Body: codec.CreateRoomRequest{Name: "arena"}.Encode()}
	if err := d.Dispatch(context.Background(), s, frame); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if gotName != "arena" {
		t.Fatalf("handler did not see decoded body: %q", gotName)
	}
	if len(s.sent) != 1 || s.sent[0] != codec.IDCreateRoomResponse {
		t.Fatalf("expected one reply frame, got %v", s.sent)
	}
}

func TestDispatchUnknownMessage(t *testing.T) {
	d := New(nil)
	s := &fakeSender{id: "s1"}
	err := d.Dispatch(context.Background(), s, codec.Frame{ID: "Nonsense"})
	if !errors.Is(err, codec.ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
}

func TestDispatchDecodeFailure(t *testing.T) {
	d := New(nil)
	Register(d, codec.IDChatMessage, codec.DecodeChatMessage,
		func(_ context.Context, _ Sender, _ codec.ChatMessage) error { return nil })

	s := &fakeSender{id: "s1"}
	// A ChatMessage body starts with a u16 string length; 0xFFFF declares a
	// 65535-byte string with no bytes after it, so decoding fails.
	err := d.Dispatch(context.Background(), s, codec.Frame{ID: codec.IDChatMessage, Body: []byte{0xFF, 0xFF}})
	if !errors.Is(err, codec.ErrDecodeFailed) {
		t.Fatalf("expected ErrDecodeFailed, got %v", err)
	}
}

func TestRegisteredReportsKnownIDs(t *testing.T) {
	d := New(nil)
	if d.Registered(codec.IDHeartbeat) {
		t.Fatalf("expected Heartbeat to be unregistered initially")
	}
	Register(d, codec.IDHeartbeat, codec.DecodeHeartbeat,
		func(_ context.Context, _ Sender, _ codec.Heartbeat) error { return nil })
	if !d.Registered(codec.IDHeartbeat) {
		t.Fatalf("expected Heartbeat to be registered")
	}
}
