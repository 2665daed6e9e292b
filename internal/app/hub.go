package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/core"
	"github.com/venlink/huddle/internal/domain"
)

const busChannel = "huddle:bus"

// busFrame is what crosses the broker between instances. Payload is a fully
// marshaled envelope; the receiving side only has to route it.
type busFrame struct {
	Origin  string          `json:"origin"`
	ConnID  core.ConnID     `json:"connId,omitempty"`
	RoomID  domain.RoomID   `json:"roomId,omitempty"`
	Except  core.ConnID     `json:"except,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Hub owns the process-local connection table and the pub/sub leg that lets
// a relay decision made here reach a connection held by another instance.
// Relay components go through Deliver/BroadcastRoom and never assume
// same-process delivery.
type Hub struct {
	instance string
	broker   core.Broker
	rooms    *RoomManager

	mu    sync.RWMutex
	conns map[core.ConnID]core.SignalConnection
}

func NewHub(broker core.Broker, rooms *RoomManager) *Hub {
	return &Hub{
		instance: uuid.NewString(),
		broker:   broker,
		rooms:    rooms,
		conns:    make(map[core.ConnID]core.SignalConnection),
	}
}

func (h *Hub) Attach(c core.SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

func (h *Hub) Detach(cid core.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, cid)
}

func (h *Hub) local(cid core.ConnID) (core.SignalConnection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[cid]
	return c, ok
}

func encode(event string, data any) (core.Frame, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	b, err := json.Marshal(domain.Envelope{Event: event, Data: raw})
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}

// Deliver sends one event to one connection: directly when the connection
// lives in this process, over the bus otherwise. Best-effort — a slow local
// peer or an unreachable broker costs the frame, never the caller.
func (h *Hub) Deliver(ctx context.Context, cid core.ConnID, event string, data any) {
	frame, err := encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("event", event).Msg("encode frame")
		return
	}
	if c, ok := h.local(cid); ok {
		if err := c.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.hub").Str("conn", string(cid)).Str("event", event).Msg("local send dropped")
		}
		return
	}
	h.publish(ctx, busFrame{Origin: h.instance, ConnID: cid, Payload: json.RawMessage(frame)})
}

// BroadcastRoom fans an event out to every member of a room, minus except.
// Local members get it directly; the frame is republished so other
// instances deliver to their own members of the same room.
func (h *Hub) BroadcastRoom(ctx context.Context, room domain.RoomID, except core.ConnID, event string, data any) {
	frame, err := encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("event", event).Msg("encode frame")
		return
	}
	h.deliverRoomLocal(room, except, frame)
	h.publish(ctx, busFrame{Origin: h.instance, RoomID: room, Except: except, Payload: json.RawMessage(frame)})
}

func (h *Hub) deliverRoomLocal(room domain.RoomID, except core.ConnID, frame core.Frame) {
	for _, cid := range h.rooms.Members(room) {
		if cid == except {
			continue
		}
		c, ok := h.local(cid)
		if !ok {
			continue
		}
		if err := c.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.hub").Str("conn", string(cid)).Msg("room send dropped")
		}
	}
}

func (h *Hub) publish(ctx context.Context, f busFrame) {
	b, err := json.Marshal(f)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("encode bus frame")
		return
	}
	if err := h.broker.Publish(ctx, busChannel, b); err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("bus publish failed")
	}
}

// Run subscribes to the bus and routes incoming frames to local connections
// until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.broker.Subscribe(ctx, busChannel, func(payload []byte) {
		var f busFrame
		if err := json.Unmarshal(payload, &f); err != nil {
			log.Warn().Err(err).Str("module", "app.hub").Msg("bad bus frame")
			return
		}
		switch {
		case f.ConnID != "":
			// Only the owning instance holds the connection, so there is
			// no double delivery to guard against.
			if c, ok := h.local(f.ConnID); ok {
				if err := c.TrySend(core.Frame(f.Payload)); err != nil {
					log.Warn().Err(err).Str("module", "app.hub").Str("conn", string(f.ConnID)).Msg("bus send dropped")
				}
			}
		case f.RoomID != "":
			// Local members already got the frame on the origin instance.
			if f.Origin == h.instance {
				return
			}
			h.deliverRoomLocal(f.RoomID, f.Except, core.Frame(f.Payload))
		}
	})
}
