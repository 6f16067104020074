// Package dispatch maps message ids to typed handlers (spec §4.2): a
// concurrent registry of {id → (decoder, handler)}, with no virtual base
// classes and no reflection — each registration captures its own body type
// via a Go generic function.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ringhub/server/internal/codec"
)

// Sender is the minimal session surface a handler needs to reply or emit
// further frames; it decouples dispatch from the concrete transport.
type Sender interface {
	SessionID() string
	SendReliable(id string, body []byte) error
	SendDatagram(id string, body []byte) error
}

// entry is the type-erased registration stored in the registry. decodeAndRun
// closes over the concrete body type captured at Register time.
type entry struct {
	decodeAndRun func(ctx context.Context, s Sender, body []byte) error
}

// Dispatcher is a concurrent map from message id to handler.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]entry
	log      *slog.Logger
}

// New returns an empty Dispatcher. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{handlers: make(map[string]entry), log: log}
}

// HandlerFunc decodes and acts on one message body of type T.
type HandlerFunc[T any] func(ctx context.Context, s Sender, body T) error

// Register binds id to a decode function and a typed handler. Re-registering
// an id replaces the previous binding.
func Register[T any](d *Dispatcher, id string, decode func([]byte) (T, error), handle HandlerFunc[T]) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[id] = entry{
		decodeAndRun: func(ctx context.Context, s Sender, body []byte) error {
			v, err := decode(body)
			if err != nil {
				return fmt.Errorf("%w: id=%s: %v", codec.ErrDecodeFailed, id, err)
			}
			return handle(ctx, s, v)
		},
	}
}

// Dispatch looks up the handler for frame.ID and invokes it. Per spec §4.2:
// an absent handler is reported as ErrUnknownMessage and the frame is
// discarded; a handler error is logged with {id, session, error kind} and
// returned. Dispatch never closes the session, and the transport read loop
// continues after any returned error: no handler error is classified as a
// protocol violation or counted toward a session kill.
func (d *Dispatcher) Dispatch(ctx context.Context, s Sender, frame codec.Frame) error {
	d.mu.RLock()
	e, ok := d.handlers[frame.ID]
	d.mu.RUnlock()
	if !ok {
		d.log.Warn("unknown message", "id", frame.ID, "session", s.SessionID())
		return fmt.Errorf("%w: %s", codec.ErrUnknownMessage, frame.ID)
	}

	if err := e.decodeAndRun(ctx, s, frame.Body); err != nil {
		d.log.Error("handler failure", "id", frame.ID, "session", s.SessionID(), "err", err)
		return err
	}
	return nil
}

// Registered reports whether id currently has a bound handler.
func (d *Dispatcher) Registered(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[id]
	return ok
}
