// Package admin is the out-of-band admin-principal authorization and audit
// boundary spec §4.5 requires for KickPlayer/BanPlayer/UnbanPlayer/
// MutePlayer/UnmutePlayer/ServerBroadcast/CloseRoom. Grounded on the
// teacher's audit_log table (store/store.go InsertAuditLog/GetAuditLog) and
// user_roles table, generalized onto the new generic Store.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ringhub/server/internal/store"
)

// ErrUnauthorized is returned by Authorize when the principal lacks the
// admin role.
var ErrUnauthorized = errors.New("admin: unauthorized")

// Role mirrors the teacher's user_roles table values.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Principal is the out-of-band admin identity attached to a session
// performing an admin-initiated operation (spec §4.5).
type Principal struct {
	ID   string
	Name string
	Role Role
	// ClientKey is the durable identity the principal's session presented in
	// its HelloRequest. Ban/unban key off this rather than ID, since ID is
	// the per-connection session id and never recurs across a reconnect.
	ClientKey string
}

const auditTable = "audit_log"
const auditKeyField = "id"

// AuditEntry records one admin action, mirroring the teacher's AuditEntry
// shape (actor, action, target, details, timestamp).
type AuditEntry struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry is the admin-facing API: ban lookups plus audit logging, built
// on the generic Store.
type Registry struct {
	bans    *store.BanStore
	backing store.Store
	nextID  func() string
}

// New constructs a Registry. idGen supplies audit-entry ids (the caller
// typically passes uuid.NewString).
func New(backing store.Store, idGen func() string) *Registry {
	return &Registry{bans: store.NewBanStore(backing), backing: backing, nextID: idGen}
}

// Authorize returns ErrUnauthorized unless p has the admin role. Every
// admin-initiated handler (spec §4.5) must call this before acting.
func Authorize(p Principal) error {
	if p.Role != RoleAdmin {
		return fmt.Errorf("%w: principal %q has role %q", ErrUnauthorized, p.ID, p.Role)
	}
	return nil
}

// Ban persists a ban and records an audit entry. until is nil for a
// permanent ban.
func (r *Registry) Ban(ctx context.Context, actor Principal, targetPlayerID, reason string, until *time.Time) error {
	if err := Authorize(actor); err != nil {
		return err
	}
	ban := store.Ban{
		PlayerID: targetPlayerID,
		Until:    until,
		Reason:   reason,
		IssuedAt: time.Now(),
		Issuer:   actor.ID,
	}
	if err := r.bans.Put(ctx, ban); err != nil {
		return err
	}
	return r.audit(ctx, actor, "ban", targetPlayerID, reason)
}

// Unban removes a ban and records an audit entry.
func (r *Registry) Unban(ctx context.Context, actor Principal, targetPlayerID string) (bool, error) {
	if err := Authorize(actor); err != nil {
		return false, err
	}
	removed, err := r.bans.Remove(ctx, targetPlayerID)
	if err != nil {
		return false, err
	}
	if removed {
		if err := r.audit(ctx, actor, "unban", targetPlayerID, ""); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// IsBanned reports whether playerID currently has an active ban.
func (r *Registry) IsBanned(ctx context.Context, playerID string) (bool, store.Ban, error) {
	ban, ok, err := r.bans.Get(ctx, playerID)
	if err != nil || !ok {
		return false, store.Ban{}, err
	}
	return ban.Active(time.Now()), ban, nil
}

// LoadBans returns every persisted ban, for use at boot (spec §5 "Persisted
// state"). Expired temporary bans are still returned; callers decide
// whether to purge them.
func (r *Registry) LoadBans(ctx context.Context) ([]store.Ban, error) {
	return r.bans.LoadAll(ctx)
}

// Audit records an administrative action not covered by Ban/Unban (e.g.
// KickPlayer, MutePlayer, ServerBroadcast, CloseRoom) after the caller has
// already authorized it.
func (r *Registry) Audit(ctx context.Context, actor Principal, action, target, details string) error {
	return r.audit(ctx, actor, action, target, details)
}

func (r *Registry) audit(ctx context.Context, actor Principal, action, target, details string) error {
	entry := AuditEntry{
		ID: r.nextID(), ActorID: actor.ID, ActorName: actor.Name,
		Action: action, Target: target, Details: details, CreatedAt: time.Now(),
	}
	return r.backing.Create(ctx, auditTable, auditKeyField, entry.ID, entry)
}

// AuditLog reads back every recorded audit entry, most-recent-first.
func (r *Registry) AuditLog(ctx context.Context) ([]AuditEntry, error) {
	raws, err := r.backing.List(ctx, auditTable)
	if err != nil {
		return nil, err
	}
	out := make([]AuditEntry, 0, len(raws))
	for _, raw := range raws {
		var e AuditEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
