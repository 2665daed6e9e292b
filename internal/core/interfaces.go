package core

import (
	"context"
	"errors"

	"github.com/venlink/huddle/internal/domain"
)

// Frame is a marshaled wire envelope ready to send.
type Frame []byte

// ConnID identifies one live transport session. Unique per process
// generation; meaningless after a restart.
type ConnID string

var (
	// ErrNotFound marks a broker key with no value. Absence is a defined
	// outcome for the registry, not a failure.
	ErrNotFound = errors.New("not found")

	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	ID() ConnID
	TrySend(Frame) error
	Close()
}

// Broker is the shared key-value + pub/sub service backing the registry
// and cross-instance fan-out. All methods may fail when the broker is
// unreachable; callers degrade instead of propagating.
type Broker interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)

	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe blocks until ctx is done, invoking fn per message.
	Subscribe(ctx context.Context, channel string, fn func(payload []byte))
}

// PresenceStore is the external user store's durable online flag.
type PresenceStore interface {
	SetOnline(ctx context.Context, id domain.UserID, online bool) error
}

// MessageStore is write-only from the core's perspective.
type MessageStore interface {
	SaveMessage(ctx context.Context, m domain.ChatMessage) error
}
