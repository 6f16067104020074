// Package transport owns the two network surfaces spec §4.1 splits apart:
// a quic-go reliable listener (one bidirectional control stream per
// session, used for everything that must arrive and arrive once) and a
// plain UDP datagram socket (every packet self-identifies with an embedded
// session id, used for high-rate position/voice traffic where a dropped or
// out-of-order packet is fine). Grounded on the teacher's client.go
// accept/join/read-loop shape, with webtransport-go's session+stream model
// swapped for quic-go's lower-level Connection+Stream (see DESIGN.md).
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/quic-go/quic-go"
	"golang.org/x/time/rate"

	"ringhub/server/internal/admin"
	"ringhub/server/internal/codec"
	"ringhub/server/internal/dispatch"
	"ringhub/server/internal/handlers"
	"ringhub/server/internal/session"
)

// Config bundles everything the transport needs to stand up its two
// listeners.
type Config struct {
	ReliableAddr string
	DatagramAddr string
	TLSConfig    *tls.Config
	IdleTimeout  time.Duration

	// AdminToken, when non-empty, is the shared secret a HelloRequest must
	// present to be granted the admin role (spec §4.5).
	AdminToken string

	// ReliableRateLimit/ReliableRateBurst bound how many reliable-channel
	// messages per second a single session may submit (spec §4.1). A
	// session that is throttled repeatedly is disconnected as a protocol
	// violation rather than silently rate-limited forever.
	ReliableRateLimit rate.Limit
	ReliableRateBurst int

	// RateViolationsBeforeKill is how many consecutive denied sends close
	// the session.
	RateViolationsBeforeKill int

	// MaxPlayers caps how many sessions may be live at once (spec §5
	// "admission cap enforced at accept"). Zero means unbounded.
	MaxPlayers int
}

// Transport owns the live listeners and the shared session bookkeeping.
type Transport struct {
	cfg        Config
	dispatcher *dispatch.Dispatcher
	deps       *handlers.Deps
	registry   *session.Registry
	principals *session.Principals
	log        *slog.Logger

	reliableListener *quic.Listener
	dgramConn        net.PacketConn
}

// New builds a Transport. registry and principals are shared with whatever
// wired deps.Targets/deps.Principals point at (normally the same objects).
func New(cfg Config, d *dispatch.Dispatcher, deps *handlers.Deps, registry *session.Registry, principals *session.Principals, log *slog.Logger) *Transport {
	if log == nil {
		log = slog.Default()
	}
	return &Transport{cfg: cfg, dispatcher: d, deps: deps, registry: registry, principals: principals, log: log}
}

// Run starts both listeners and blocks until ctx is canceled or a listener
// fails to start. It returns once both listeners have been closed.
func (t *Transport) Run(ctx context.Context) error {
	qcfg := &quic.Config{MaxIdleTimeout: t.cfg.IdleTimeout}
	ln, err := quic.ListenAddr(t.cfg.ReliableAddr, t.cfg.TLSConfig, qcfg)
	if err != nil {
		return fmt.Errorf("transport: reliable listen: %w", err)
	}
	t.reliableListener = ln

	pc, err := net.ListenPacket("udp", t.cfg.DatagramAddr)
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("transport: datagram listen: %w", err)
	}
	t.dgramConn = pc

	t.log.Info("transport listening", "reliable", ln.Addr().String(), "datagram", pc.LocalAddr().String())

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.acceptLoop(ctx)
	}()
	go t.datagramLoop(ctx)

	<-ctx.Done()
	_ = ln.Close()
	_ = pc.Close()
	<-done
	return nil
}

func (t *Transport) acceptLoop(ctx context.Context) {
	for {
		conn, err := t.reliableListener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.Warn("reliable accept failed", "err", err)
			continue
		}
		go t.handleConnection(ctx, conn)
	}
}

func (t *Transport) handleConnection(ctx context.Context, conn quic.Connection) {
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		t.log.Warn("accept control stream failed", "remote", conn.RemoteAddr().String(), "err", err)
		return
	}
	defer stream.Close()

	t.serveControlStream(ctx, stream, conn.RemoteAddr().String(), func(reason string) {
		// Unblocks the blocking stream Read below on a forced close (kick,
		// ban, rate-limit kill): Session.Close alone only marks the Session
		// dead, it has no way to interrupt an in-flight Read itself.
		_ = conn.CloseWithError(0, reason)
	})
}

// rejectHello sends a rejected HelloResponse and lets the caller close the
// stream; it never registers a session or lobby player for a refused hello.
func (t *Transport) rejectHello(rw io.ReadWriter, reason string) {
	resp := codec.HelloResponse{Rejected: true, RejectReason: reason, ServerTS: time.Now().UnixMilli()}
	if err := codec.WriteReliableFrame(rw, codec.IDHelloResponse, resp.Encode()); err != nil {
		t.log.Debug("reject hello response failed", "err", err)
	}
}

// serveControlStream runs the hello handshake and message loop over rw. It
// is split out from handleConnection so it can be driven over a net.Pipe in
// tests without a live quic connection; onForceClose is whatever the
// concrete transport needs to do to unblock a pending Read on rw when the
// session is closed from elsewhere (an admin kick, a rate-limit violation).
func (t *Transport) serveControlStream(ctx context.Context, rw io.ReadWriter, remote string, onForceClose func(reason string)) {
	frame, err := codec.ReadReliableFrame(rw)
	if err != nil {
		t.log.Warn("hello read failed", "remote", remote, "err", err)
		return
	}
	if frame.ID != codec.IDHelloRequest {
		t.log.Warn("first frame was not HelloRequest", "id", frame.ID, "remote", remote)
		return
	}
	hello, err := codec.DecodeHelloRequest(frame.Body)
	if err != nil {
		t.log.Warn("hello decode failed", "err", err)
		return
	}

	if t.cfg.MaxPlayers > 0 && t.registry.Len() >= t.cfg.MaxPlayers {
		t.log.Warn("rejecting connection: server full", "remote", remote, "max_players", t.cfg.MaxPlayers)
		t.rejectHello(rw, "server full")
		return
	}

	if hello.ClientKey != "" {
		banned, ban, err := t.deps.Admin.IsBanned(ctx, hello.ClientKey)
		if err != nil {
			t.log.Warn("ban lookup failed", "remote", remote, "err", err)
		} else if banned {
			t.log.Warn("rejecting connection: banned client key", "remote", remote, "client_key", hello.ClientKey, "reason", ban.Reason)
			t.rejectHello(rw, "banned: "+ban.Reason)
			return
		}
	}

	id := uuid.New()
	idStr := id.String()

	role := admin.RoleUser
	if t.cfg.AdminToken != "" && hello.AdminToken == t.cfg.AdminToken {
		role = admin.RoleAdmin
	}
	principal := admin.Principal{ID: idStr, Name: hello.Name, Role: role, ClientKey: hello.ClientKey}
	t.principals.Set(idStr, principal)

	var limiter *rate.Limiter
	if t.cfg.ReliableRateLimit > 0 {
		limiter = rate.NewLimiter(t.cfg.ReliableRateLimit, t.cfg.ReliableRateBurst)
	}
	sess := session.New(id, rw, limiter, t.log)
	t.registry.Add(sess, func(reason string) {
		t.principals.Remove(idStr)
		handlers.Disconnect(t.deps, idStr)
		if onForceClose != nil {
			onForceClose(reason)
		}
	})

	t.deps.Lobby.CreatePlayer(idStr, hello.Name)

	resp := codec.HelloResponse{SessionID: idStr, ServerTS: time.Now().UnixMilli()}
	if err := sess.SendReliable(codec.IDHelloResponse, resp.Encode()); err != nil {
		t.log.Warn("hello response failed", "session", idStr, "err", err)
		sess.Close("hello response failed")
		return
	}

	t.log.Info("session connected", "session", idStr, "name", hello.Name, "role", role, "remote", remote)

	violations := 0
	for {
		select {
		case <-sess.Closed():
			return
		default:
		}
		frame, err := codec.ReadReliableFrame(rw)
		if err != nil {
			sess.Close("read error: " + err.Error())
			return
		}
		if !sess.AllowReliable() {
			violations++
			t.log.Warn("reliable rate limit exceeded", "session", idStr, "id", frame.ID, "violations", violations)
			if t.cfg.RateViolationsBeforeKill > 0 && violations >= t.cfg.RateViolationsBeforeKill {
				sess.Close("protocol violation: sustained rate limit breach")
				return
			}
			continue
		}
		violations = 0
		if err := t.dispatcher.Dispatch(ctx, sess, frame); err != nil {
			// Dispatch already logged the failure; an unknown message or a
			// bad decode does not kill the session (spec §4.2).
			continue
		}
	}
}
