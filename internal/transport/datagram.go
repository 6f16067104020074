package transport

import (
	"context"
	"net"

	"ringhub/server/internal/codec"
)

// datagramLoop reads raw UDP packets and routes them to the session whose
// id is embedded in the packet. A datagram naming a session id the registry
// doesn't know (never said hello, or already disconnected) is dropped
// silently, per spec §6 — there is no per-packet authentication on this
// channel, only routing by the id the client was handed in HelloResponse.
func (t *Transport) datagramLoop(ctx context.Context) {
	buf := make([]byte, 2*codec.MaxDatagramSize)
	for {
		n, addr, err := t.dgramConn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.Debug("datagram read error", "err", err)
			continue
		}
		if n > codec.MaxDatagramSize {
			t.log.Warn("dropping oversized datagram", "remote", addr.String(), "size", n, "max", codec.MaxDatagramSize)
			continue
		}
		raw := make([]byte, n)
		copy(raw, buf[:n])
		go t.handleDatagram(ctx, raw, addr)
	}
}

func (t *Transport) handleDatagram(ctx context.Context, raw []byte, addr net.Addr) {
	id, sessionID, body, err := codec.DecodeDatagram(raw)
	if err != nil {
		t.log.Debug("datagram decode failed", "err", err)
		return
	}
	sess, ok := t.registry.Session(sessionID.String())
	if !ok {
		return
	}
	sess.BindDatagram(t.dgramConn, addr)
	_ = t.dispatcher.Dispatch(ctx, sess, codec.Frame{ID: id, Body: body})
}
