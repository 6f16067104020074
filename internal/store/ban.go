package store

import (
	"context"
	"encoding/json"
	"time"
)

const banTable = "bans"
const banKeyField = "player_id"

// Ban is the admin-owned ban record (spec §3 "Ban record"): {player id,
// until (nullable), reason, issued_at, issuer}.
type Ban struct {
	PlayerID string     `json:"player_id"`
	Until    *time.Time `json:"until,omitempty"` // nil = permanent
	Reason   string     `json:"reason"`
	IssuedAt time.Time  `json:"issued_at"`
	Issuer   string     `json:"issuer"`
}

// Active reports whether the ban is still in effect at now.
func (b Ban) Active(now time.Time) bool {
	return b.Until == nil || now.Before(*b.Until)
}

// BanStore persists bans through the generic Store, resolving the spec's
// ban-persistence open question: bans are written on BanPlayer/UnbanPlayer
// and read back in full on boot (spec §5 "Persisted state").
type BanStore struct {
	backing Store
}

// NewBanStore wraps a Store for ban persistence.
func NewBanStore(backing Store) *BanStore {
	return &BanStore{backing: backing}
}

// Put upserts a ban record, creating it if absent.
func (b *BanStore) Put(ctx context.Context, ban Ban) error {
	err := b.backing.Update(ctx, banTable, banKeyField, ban.PlayerID, ban)
	if err == ErrNotFound {
		return b.backing.Create(ctx, banTable, banKeyField, ban.PlayerID, ban)
	}
	return err
}

// Get reads back a single ban, if one is on record.
func (b *BanStore) Get(ctx context.Context, playerID string) (Ban, bool, error) {
	var ban Ban
	err := b.backing.Read(ctx, banTable, banKeyField, playerID, &ban)
	if err == ErrNotFound {
		return Ban{}, false, nil
	}
	if err != nil {
		return Ban{}, false, err
	}
	return ban, true, nil
}

// Remove deletes a ban record (UnbanPlayer). Returns false if no ban was on
// record for playerID.
func (b *BanStore) Remove(ctx context.Context, playerID string) (bool, error) {
	err := b.backing.Delete(ctx, banTable, banKeyField, playerID)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LoadAll reads every persisted ban, for use at boot.
func (b *BanStore) LoadAll(ctx context.Context) ([]Ban, error) {
	raws, err := b.backing.List(ctx, banTable)
	if err != nil {
		return nil, err
	}
	out := make([]Ban, 0, len(raws))
	for _, raw := range raws {
		var ban Ban
		if err := json.Unmarshal(raw, &ban); err != nil {
			return nil, err
		}
		out = append(out, ban)
	}
	return out, nil
}
