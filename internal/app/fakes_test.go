package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/venlink/huddle/internal/core"
)

var errBrokerDown = errors.New("broker down")

// memBroker is an in-memory Broker with loopback pub/sub, enough to stand in
// for Redis in tests. Setting down makes every call fail.
type memBroker struct {
	mu   sync.Mutex
	kv   map[string]string
	subs map[string][]func([]byte)
	down bool
}

func newMemBroker() *memBroker {
	return &memBroker{
		kv:   make(map[string]string),
		subs: make(map[string][]func([]byte)),
	}
}

func (b *memBroker) Get(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.down {
		return "", errBrokerDown
	}
	val, ok := b.kv[key]
	if !ok {
		return "", core.ErrNotFound
	}
	return val, nil
}

func (b *memBroker) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.down {
		return errBrokerDown
	}
	b.kv[key] = value
	return nil
}

func (b *memBroker) Del(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.down {
		return errBrokerDown
	}
	for _, k := range keys {
		delete(b.kv, k)
	}
	return nil
}

func (b *memBroker) Keys(_ context.Context, pattern string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.down {
		return nil, errBrokerDown
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for k := range b.kv {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (b *memBroker) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	if b.down {
		b.mu.Unlock()
		return errBrokerDown
	}
	fns := append([]func([]byte){}, b.subs[channel]...)
	b.mu.Unlock()
	for _, fn := range fns {
		fn(payload)
	}
	return nil
}

func (b *memBroker) Subscribe(ctx context.Context, channel string, fn func(payload []byte)) {
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], fn)
	b.mu.Unlock()
	<-ctx.Done()
}

func (b *memBroker) subscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

func (b *memBroker) setDown(down bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.down = down
}

// fakeConn records every frame it is handed.
type fakeConn struct {
	id core.ConnID

	mu     sync.Mutex
	frames []core.Frame
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: core.ConnID(id)}
}

func (c *fakeConn) ID() core.ConnID { return c.id }

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) sent() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Frame{}, c.frames...)
}
