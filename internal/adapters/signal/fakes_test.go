package signal

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/venlink/huddle/internal/app"
	"github.com/venlink/huddle/internal/core"
	"github.com/venlink/huddle/internal/domain"
)

// memBroker is an in-memory stand-in for Redis. Tests here run single
// instance, so publishes just vanish like they would with no other
// subscriber.
type memBroker struct {
	mu sync.Mutex
	kv map[string]string
}

func newMemBroker() *memBroker {
	return &memBroker{kv: make(map[string]string)}
}

func (b *memBroker) Get(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	val, ok := b.kv[key]
	if !ok {
		return "", core.ErrNotFound
	}
	return val, nil
}

func (b *memBroker) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kv[key] = value
	return nil
}

func (b *memBroker) Del(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.kv, k)
	}
	return nil
}

func (b *memBroker) Keys(_ context.Context, pattern string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for k := range b.kv {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (b *memBroker) Publish(_ context.Context, _ string, _ []byte) error { return nil }

func (b *memBroker) Subscribe(ctx context.Context, _ string, _ func(payload []byte)) {
	<-ctx.Done()
}

type presenceCall struct {
	uid    domain.UserID
	online bool
}

type fakePresence struct {
	mu    sync.Mutex
	calls []presenceCall
}

func (p *fakePresence) SetOnline(_ context.Context, uid domain.UserID, online bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, presenceCall{uid: uid, online: online})
	return nil
}

func (p *fakePresence) recorded() []presenceCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]presenceCall{}, p.calls...)
}

type fakeMessages struct {
	mu    sync.Mutex
	saved []domain.ChatMessage
}

func (m *fakeMessages) SaveMessage(_ context.Context, msg domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, msg)
	return nil
}

func (m *fakeMessages) recorded() []domain.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ChatMessage{}, m.saved...)
}

// harness wires a controller with real registry/rooms/hub over the memory
// broker and recording fakes for the external stores.
type harness struct {
	broker   *memBroker
	registry *app.Registry
	rooms    *app.RoomManager
	hub      *app.Hub
	presence *fakePresence
	messages *fakeMessages
	ctl      *SignalWSController
}

func newHarness(limit *EventRateLimiter) *harness {
	broker := newMemBroker()
	rooms := app.NewRoomManager()
	registry := app.NewRegistry(broker)
	hub := app.NewHub(broker, rooms)
	presence := &fakePresence{}
	messages := &fakeMessages{}
	return &harness{
		broker:   broker,
		registry: registry,
		rooms:    rooms,
		hub:      hub,
		presence: presence,
		messages: messages,
		ctl:      NewSignalWSController(registry, rooms, hub, app.NewPresence(presence), messages, limit),
	}
}

// conn builds a transport-less connection attached to the hub; frames land
// in the send buffer where tests can drain them.
func (h *harness) conn(id string) *WsSignalConn {
	c := &WsSignalConn{
		id:   core.ConnID(id),
		send: make(chan core.Frame, 32),
	}
	h.hub.Attach(c)
	return c
}

func (h *harness) event(t *testing.T, c *WsSignalConn, event string, data any) {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(t, err)
		raw = b
	}
	b, err := json.Marshal(domain.Envelope{Event: event, Data: raw})
	require.NoError(t, err)
	h.ctl.handleEvent(context.Background(), c, b)
}

func drain(c *WsSignalConn) []domain.Envelope {
	var out []domain.Envelope
	for {
		select {
		case f := <-c.send:
			var env domain.Envelope
			if json.Unmarshal(f, &env) == nil {
				out = append(out, env)
			}
		default:
			return out
		}
	}
}
