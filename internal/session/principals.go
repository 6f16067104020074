package session

import (
	"sync"

	"ringhub/server/internal/admin"
)

// Principals maps session id to the admin.Principal established at
// handshake time (spec §4.5: role is decided once, at connect, from the
// HelloRequest admin token, and held for the life of the session).
type Principals struct {
	mu sync.RWMutex
	m  map[string]admin.Principal
}

func NewPrincipals() *Principals {
	return &Principals{m: make(map[string]admin.Principal)}
}

func (p *Principals) Set(sessionID string, principal admin.Principal) {
	p.mu.Lock()
	p.m[sessionID] = principal
	p.mu.Unlock()
}

func (p *Principals) Remove(sessionID string) {
	p.mu.Lock()
	delete(p.m, sessionID)
	p.mu.Unlock()
}

// PrincipalFor implements handlers.Principals. An unknown session id (one
// that never completed a hello, or already disconnected) is reported as an
// ordinary user, never as an admin.
func (p *Principals) PrincipalFor(sessionID string) admin.Principal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	principal, ok := p.m[sessionID]
	if !ok {
		return admin.Principal{ID: sessionID, Role: admin.RoleUser}
	}
	return principal
}
