// Package session implements the Session surface that sits between the
// transport (quic-go reliable stream + raw UDP datagram socket) and the
// dispatcher: it satisfies dispatch.Sender and the registry-facing
// handlers.Targets contract, and carries the per-session reliable-channel
// rate limit from spec §4.1.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"ringhub/server/internal/codec"
)

// Session wraps one client's reliable stream and datagram address. Writes to
// the reliable stream are serialized; the datagram socket is shared across
// all sessions so sends go through it directly.
type Session struct {
	id         uuid.UUID
	idStr      string
	stream     io.Writer
	dgramConn  net.PacketConn
	dgramAddr  net.Addr
	limiter    *rate.Limiter
	log        *slog.Logger

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
	onClose   func(reason string)
}

// New builds a Session bound to stream for the reliable channel. dgramConn
// and dgramAddr may be nil/unset until the client's first datagram arrives
// and binds its source address (see Session.BindDatagram).
func New(id uuid.UUID, stream io.Writer, limiter *rate.Limiter, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		id:      id,
		idStr:   id.String(),
		stream:  stream,
		limiter: limiter,
		log:     log,
		closed:  make(chan struct{}),
	}
}

func (s *Session) SessionID() string { return s.idStr }

// UUID returns the session id in the form the datagram codec wants.
func (s *Session) UUID() uuid.UUID { return s.id }

func (s *Session) SendReliable(id string, body []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return codec.WriteReliableFrame(s.stream, id, body)
}

func (s *Session) SendDatagram(id string, body []byte) error {
	s.writeMu.Lock()
	conn, addr := s.dgramConn, s.dgramAddr
	s.writeMu.Unlock()
	if conn == nil || addr == nil {
		return fmt.Errorf("session %s: no datagram address bound yet", s.idStr)
	}
	raw := codec.EncodeDatagram(id, s.id, body)
	if len(raw) > codec.MaxDatagramSize {
		return fmt.Errorf("session %s: outgoing datagram %s exceeds MaxDatagramSize", s.idStr, id)
	}
	_, err := conn.WriteTo(raw, addr)
	return err
}

// AllowReliable reports whether another reliable-channel message may be
// processed right now, consuming one token if so (spec §4.1 rate limiting:
// sustained violation is the caller's cue to kill the session).
func (s *Session) AllowReliable() bool {
	if s.limiter == nil {
		return true
	}
	return s.limiter.Allow()
}

// BindDatagram records where outgoing datagrams for this session should be
// sent, and which socket to send them on. Called once the client's first
// datagram has been correlated to this session id.
func (s *Session) BindDatagram(conn net.PacketConn, addr net.Addr) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.dgramConn = conn
	s.dgramAddr = addr
}

// Closed reports whether Close has been called.
func (s *Session) Closed() <-chan struct{} { return s.closed }

// Close marks the session dead and invokes the registered close callback
// exactly once. reason is logged and, if the transport set one up, surfaced
// to the client before the stream is torn down by the caller.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.log.Info("session closed", "session", s.idStr, "reason", reason)
		if s.onClose != nil {
			s.onClose(reason)
		}
	})
}

// SetOnClose installs the callback Close invokes. Used by the registry to
// unregister itself without Session importing the registry.
func (s *Session) SetOnClose(f func(reason string)) { s.onClose = f }
