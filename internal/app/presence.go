package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/core"
	"github.com/venlink/huddle/internal/domain"
)

// Presence records the durable online flag in the external user store.
// State is derived from registry membership at join/disconnect — there is no
// heartbeat, so a client that dies without a transport-level disconnect stays
// "online" until the next boot sweep. Store failures never propagate.
type Presence struct {
	store core.PresenceStore
}

func NewPresence(store core.PresenceStore) *Presence {
	return &Presence{store: store}
}

func (p *Presence) Online(ctx context.Context, uid domain.UserID) {
	p.set(ctx, uid, true)
}

func (p *Presence) Offline(ctx context.Context, uid domain.UserID) {
	p.set(ctx, uid, false)
}

func (p *Presence) set(ctx context.Context, uid domain.UserID, online bool) {
	if err := p.store.SetOnline(ctx, uid, online); err != nil {
		log.Error().Err(err).Str("module", "app.presence").Str("user", string(uid)).Bool("online", online).Msg("set online failed")
		return
	}
	log.Info().Str("module", "app.presence").Str("user", string(uid)).Bool("online", online).Msg("presence updated")
}
