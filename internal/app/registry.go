package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/core"
	"github.com/venlink/huddle/internal/domain"
)

const userKeyPrefix = "user:"

// Registry maps user ids to live connection ids through the shared broker,
// so a lookup on one instance resolves a connection held by another.
// Last writer wins; there is no locking and no CAS — the registry records
// the best current known location, not a source of truth.
type Registry struct {
	broker core.Broker
}

func NewRegistry(broker core.Broker) *Registry {
	return &Registry{broker: broker}
}

func userKey(id domain.UserID) string {
	return userKeyPrefix + string(id)
}

// Register upserts the user's entry. A broker failure is logged and
// swallowed: the connection still works for same-process room relay, only
// cross-user resolution degrades to "peer offline".
func (r *Registry) Register(ctx context.Context, uid domain.UserID, cid core.ConnID) {
	if err := r.broker.Set(ctx, userKey(uid), string(cid)); err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("user", string(uid)).Msg("register failed")
		return
	}
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Str("conn", string(cid)).Msg("registered")
}

// Resolve returns the user's current connection id. A missing entry and a
// broker failure both come back as not-ok.
func (r *Registry) Resolve(ctx context.Context, uid domain.UserID) (core.ConnID, bool) {
	val, err := r.broker.Get(ctx, userKey(uid))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			log.Error().Err(err).Str("module", "app.registry").Str("user", string(uid)).Msg("resolve failed")
		}
		return "", false
	}
	return core.ConnID(val), true
}

// Unregister removes every entry owned by the given connection and returns
// the affected user ids. The full prefix scan is deliberate: disconnects are
// not latency-critical and a reverse index would mean two registries to keep
// in sync.
func (r *Registry) Unregister(ctx context.Context, cid core.ConnID) []domain.UserID {
	keys, err := r.broker.Keys(ctx, userKeyPrefix+"*")
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Str("conn", string(cid)).Msg("unregister scan failed")
		return nil
	}

	var removed []domain.UserID
	for _, key := range keys {
		val, err := r.broker.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, core.ErrNotFound) {
				log.Error().Err(err).Str("module", "app.registry").Str("key", key).Msg("unregister get failed")
			}
			continue
		}
		if core.ConnID(val) != cid {
			continue
		}
		if err := r.broker.Del(ctx, key); err != nil {
			log.Error().Err(err).Str("module", "app.registry").Str("key", key).Msg("unregister del failed")
			continue
		}
		uid := domain.UserID(key[len(userKeyPrefix):])
		removed = append(removed, uid)
		log.Info().Str("module", "app.registry").Str("user", string(uid)).Str("conn", string(cid)).Msg("unregistered")
	}
	return removed
}

// SweepStale flushes the whole registry namespace. Connection ids from a
// previous process generation are meaningless, so the registry is treated as
// a cache that is safe to drop at boot. Returns the number of entries swept.
func (r *Registry) SweepStale(ctx context.Context) int {
	keys, err := r.broker.Keys(ctx, userKeyPrefix+"*")
	if err != nil {
		log.Error().Err(err).Str("module", "app.registry").Msg("sweep scan failed")
		return 0
	}
	if len(keys) == 0 {
		return 0
	}
	if err := r.broker.Del(ctx, keys...); err != nil {
		log.Error().Err(err).Str("module", "app.registry").Msg("sweep del failed")
		return 0
	}
	log.Info().Str("module", "app.registry").Int("entries", len(keys)).Msg("swept stale registry entries")
	return len(keys)
}
