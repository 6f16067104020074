// Package codec implements the length-prefixed, id-tagged message framing
// and body encoding described in spec §6, plus the per-id message types and
// their Encode/Decode functions; the id → handler registry lives in package
// dispatch.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// MaxReliableFrame bounds a single reliable frame's total size (length
// prefix + id + body). Declaring a frame larger than this is FrameTooLarge.
const MaxReliableFrame = 1 << 20 // 1 MiB

// MaxDatagramSize is the maximum whole-message size accepted on the
// datagram channel (spec §6); larger datagrams are dropped with a warning.
const MaxDatagramSize = 1200

// DatagramSessionIDLen is the width of the embedded sender session id.
const DatagramSessionIDLen = 16

// Frame is one decoded reliable-channel or datagram-channel message: an
// ascii id and its still-encoded body.
type Frame struct {
	ID   string
	Body []byte
}

// WriteReliableFrame writes [u32 len][u32 id_len][id][body] to w.
func WriteReliableFrame(w io.Writer, id string, body []byte) error {
	if len(id) > 0xFFFF {
		return fmt.Errorf("codec: id too long: %q", id)
	}
	payloadLen := 4 + len(id) + len(body)
	if payloadLen > MaxReliableFrame {
		return ErrFrameTooLarge
	}
	header := make([]byte, 4+4)
	binary.LittleEndian.PutUint32(header[0:4], uint32(payloadLen))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(id)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := io.WriteString(w, id); err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}

// ReadReliableFrame reads one frame from r. It returns ErrFrameTruncated if
// the stream ends before the declared length is satisfied, and
// ErrFrameTooLarge if the declared length exceeds MaxReliableFrame.
func ReadReliableFrame(r io.Reader) (Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("%w: reading length: %v", ErrFrameTruncated, err)
	}
	payloadLen := binary.LittleEndian.Uint32(lenBuf[:])
	if payloadLen > MaxReliableFrame || payloadLen < 4 {
		return Frame{}, ErrFrameTooLarge
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, fmt.Errorf("%w: reading payload: %v", ErrFrameTruncated, err)
	}

	idLen := binary.LittleEndian.Uint32(payload[0:4])
	if int(idLen) > len(payload)-4 {
		return Frame{}, fmt.Errorf("%w: id_len exceeds payload", ErrDecodeFailed)
	}
	id := string(payload[4 : 4+idLen])
	body := payload[4+idLen:]
	return Frame{ID: id, Body: body}, nil
}

// EncodeDatagram builds [u32 id_len][id][16-byte session id][body]. The
// caller is responsible for keeping the result within MaxDatagramSize.
func EncodeDatagram(id string, sessionID uuid.UUID, body []byte) []byte {
	out := make([]byte, 4+len(id)+DatagramSessionIDLen+len(body))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(id)))
	n := 4
	n += copy(out[n:], id)
	n += copy(out[n:], sessionID[:])
	copy(out[n:], body)
	return out
}

// DecodeDatagram parses a raw datagram into its id, claimed sender session
// id, and body. Datagrams larger than MaxDatagramSize must be rejected by
// the caller before reaching here (so the drop is visible as a distinct
// "oversized" condition, per spec §4.1).
func DecodeDatagram(raw []byte) (id string, sessionID uuid.UUID, body []byte, err error) {
	if len(raw) < 4 {
		return "", uuid.Nil, nil, ErrDecodeFailed
	}
	idLen := int(binary.LittleEndian.Uint32(raw[0:4]))
	need := 4 + idLen + DatagramSessionIDLen
	if idLen < 0 || len(raw) < need {
		return "", uuid.Nil, nil, ErrDecodeFailed
	}
	id = string(raw[4 : 4+idLen])
	sid, err := uuid.FromBytes(raw[4+idLen : 4+idLen+DatagramSessionIDLen])
	if err != nil {
		return "", uuid.Nil, nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	body = raw[need:]
	return id, sid, body, nil
}
