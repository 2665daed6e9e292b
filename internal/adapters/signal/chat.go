package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/domain"
)

// handleJoin binds the caller's user id to this connection in the shared
// registry. Last join wins — a reconnect simply overwrites the old entry.
func (ctl *SignalWSController) handleJoin(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		return
	}
	uid, err := domain.ParseUserID(raw)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join user id")
		return
	}

	ctl.Registry.Register(ctx, uid, conn.ID())
	ctl.Presence.Online(ctx, uid)
	log.Info().Str("module", "signal").Str("user", string(uid)).Str("conn", string(conn.ID())).Msg("join")
}

// handleTyping forwards a typing notification to the receiver if online.
// Offline is not an error — the notification just evaporates.
func (ctl *SignalWSController) handleTyping(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad typing payload")
		return
	}
	receiver := domain.UserID(raw)

	cid, ok := ctl.Registry.Resolve(ctx, receiver)
	if !ok {
		log.Debug().Str("module", "signal").Str("user", string(receiver)).Msg("typing: receiver offline")
		return
	}
	ctl.Hub.Deliver(ctx, cid, domain.OutIsTyping, nil)
}

// handleSendMessage forwards the message payload verbatim to the receiver's
// connection and archives it best-effort. Durability never gates fan-out,
// and an offline receiver produces no outbound event at all.
func (ctl *SignalWSController) handleSendMessage(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	var msg domain.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad message payload")
		return
	}
	if err := validate.Struct(msg); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("invalid message payload")
		return
	}

	if ctl.Messages != nil {
		if err := ctl.Messages.SaveMessage(ctx, msg); err != nil {
			log.Error().Err(err).Str("module", "signal").Str("receiver", string(msg.ReceiverID)).Msg("message archive failed")
		}
	}

	cid, ok := ctl.Registry.Resolve(ctx, msg.ReceiverID)
	if !ok {
		log.Debug().Str("module", "signal").Str("user", string(msg.ReceiverID)).Msg("send-message: receiver offline")
		return
	}
	ctl.Hub.Deliver(ctx, cid, domain.OutReceivedMessage, json.RawMessage(data))
}
