package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/domain"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ping := ctl.PingPeriod
	if ping <= 0 {
		ping = 54 * time.Second
	}
	ticker := time.NewTicker(ping)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleEvent(ctx, c, data)
		}
	}
}

// handleEvent is the handler boundary: a malformed payload or a panic in a
// handler costs one event, never the session.
func (ctl *SignalWSController) handleEvent(ctx context.Context, c *WsSignalConn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("module", "signal").Str("conn", string(c.id)).Msg("handler panic recovered")
		}
	}()

	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	if ctl.limiter != nil && !ctl.limiter.Allow(c.id) {
		log.Warn().Str("module", "signal").Str("conn", string(c.id)).Str("event", env.Event).Msg("rate limited, event dropped")
		return
	}

	switch domain.ParseEvent(env.Event) {
	case domain.EventJoin:
		ctl.handleJoin(ctx, c, env.Data)
	case domain.EventTyping:
		ctl.handleTyping(ctx, c, env.Data)
	case domain.EventSendMessage:
		ctl.handleSendMessage(ctx, c, env.Data)
	case domain.EventStartCall:
		ctl.handleStartCall(ctx, c, env.Data)
	case domain.EventAcceptCall:
		ctl.handleAcceptCall(ctx, c, env.Data)
	case domain.EventRejectCall:
		ctl.handleRejectCall(ctx, c, env.Data)
	case domain.EventEndCall:
		ctl.handleEndCall(ctx, c, env.Data)
	case domain.EventJoinRoom:
		ctl.handleJoinRoom(ctx, c, env.Data)
	case domain.EventOffer:
		ctl.handleOffer(ctx, c, env.Data)
	case domain.EventAnswer:
		ctl.handleAnswer(ctx, c, env.Data)
	case domain.EventICECandidate:
		ctl.handleCandidate(ctx, c, env.Data)
	case domain.EventUnknown:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
	}
}
