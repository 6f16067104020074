package codec

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/uuid"
)

func TestRoundTripCreateRoomRequest(t *testing.T) {
	want := CreateRoomRequest{Name: "arena", Max: 2, Private: true, PasswordHash: "hash"}
	got, err := DecodeCreateRoomRequest(want.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestRoundTripPlayerPositionUpdate(t *testing.T) {
	want := PlayerPositionUpdate{
		Seq:      7,
		Position: Vec3{1, 0, 0},
		Rotation: Quat{0, 0, 0, 1},
		Velocity: Vec3{0.5, 0, 0},
	}
	got, err := DecodePlayerPositionUpdate(want.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestRoundTripJoinRoomResponse(t *testing.T) {
	want := JoinRoomResponse{
		OK: true,
		RoomInfo: RoomInfo{
			ID: "R1", Name: "arena", Max: 2, Count: 1,
			Private: false, State: "Waiting", OwnerID: "p1",
		},
	}
	got, err := DecodeJoinRoomResponse(want.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestReliableFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	body := CreateRoomRequest{Name: "x", Max: 4}.Encode()
	if err := WriteReliableFrame(&buf, IDCreateRoomRequest, body); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame, err := ReadReliableFrame(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.ID != IDCreateRoomRequest || !bytes.Equal(frame.Body, body) {
		t.Fatalf("frame mismatch: %+v", frame)
	}
}

// TestFramingConcatenation exercises the §8 "Framing" property: two frames
// concatenated and streamed in arbitrary byte chunks must yield exactly two
// delivered messages with the original payloads.
func TestFramingConcatenation(t *testing.T) {
	var buf bytes.Buffer
	bodyA := ChatMessage{Message: "hello"}.Encode()
	bodyB := ChatMessage{Message: "world"}.Encode()
	if err := WriteReliableFrame(&buf, IDChatMessage, bodyA); err != nil {
		t.Fatal(err)
	}
	if err := WriteReliableFrame(&buf, IDChatMessage, bodyB); err != nil {
		t.Fatal(err)
	}

	// Re-chunk the concatenated stream into a slow, arbitrary-sized reader.
	all := buf.Bytes()
	chunked := &chunkedReader{data: all, chunkSize: 3}

	f1, err := ReadReliableFrame(chunked)
	if err != nil {
		t.Fatalf("frame 1: %v", err)
	}
	f2, err := ReadReliableFrame(chunked)
	if err != nil {
		t.Fatalf("frame 2: %v", err)
	}
	if _, err := ReadReliableFrame(chunked); err == nil {
		t.Fatalf("expected EOF/truncation after two frames")
	}

	if f1.ID != IDChatMessage || !bytes.Equal(f1.Body, bodyA) {
		t.Fatalf("frame 1 mismatch: %+v", f1)
	}
	if f2.ID != IDChatMessage || !bytes.Equal(f2.Body, bodyB) {
		t.Fatalf("frame 2 mismatch: %+v", f2)
	}
}

type chunkedReader struct {
	data      []byte
	chunkSize int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.chunkSize
	if n > len(p) {
		n = len(p)
	}
	if n > len(c.data) {
		n = len(c.data)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func TestDatagramRoundTrip(t *testing.T) {
	sid := uuid.New()
	body := AudioPacket{Seq: 42, Payload: []byte{1, 2, 3}}.Encode()
	raw := EncodeDatagram(IDAudioPacket, sid, body)

	id, gotSID, gotBody, err := DecodeDatagram(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id != IDAudioPacket || gotSID != sid || !bytes.Equal(gotBody, body) {
		t.Fatalf("datagram mismatch: id=%s sid=%s body=%v", id, gotSID, gotBody)
	}
}

func TestDatagramRejectsShortInput(t *testing.T) {
	if _, _, _, err := DecodeDatagram([]byte{1, 2}); err == nil {
		t.Fatalf("expected error decoding too-short datagram")
	}
}

func TestRoundTripHelloRequest(t *testing.T) {
	want := HelloRequest{Name: "alice", ClientKey: "durable-key-1", AdminToken: "secret"}
	got, err := DecodeHelloRequest(want.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestRoundTripHelloResponse(t *testing.T) {
	want := HelloResponse{SessionID: "s1", ServerTS: 123, Rejected: true, RejectReason: "banned: cheating"}
	got, err := DecodeHelloResponse(want.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

func TestRoundTripAudioPacketGain(t *testing.T) {
	want := AudioPacket{Seq: 7, Gain: 0.5, Payload: []byte{9, 8, 7}}
	got, err := DecodeAudioPacket(want.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Seq != want.Seq || got.Gain != want.Gain || !bytes.Equal(got.Payload, want.Payload) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}
