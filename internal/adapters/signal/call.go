package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/domain"
)

// Call lifecycle per attempt: Idle → Ringing → Accepted | Rejected | Ended.
// The attempt is keyed by the caller/callee ids the client supplies; the
// relay holds no call state of its own, every transition is a registry
// lookup plus a forward.

type startCallPayload struct {
	From   domain.UserID `json:"from" validate:"required"`
	To     domain.UserID `json:"to" validate:"required"`
	RoomID domain.RoomID `json:"roomId" validate:"required"`
}

// handleStartCall rings the callee, or tells the caller the callee is
// offline. receiver-offline is the only user-visible failure in the whole
// relay — everything else drops silently.
func (ctl *SignalWSController) handleStartCall(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	var p startCallPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad start-call payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("invalid start-call payload")
		return
	}

	calleeConn, ok := ctl.Registry.Resolve(ctx, p.To)
	if !ok {
		log.Info().Str("module", "signal").Str("from", string(p.From)).Str("to", string(p.To)).Msg("start-call: receiver offline")
		if callerConn, ok := ctl.Registry.Resolve(ctx, p.From); ok {
			ctl.Hub.Deliver(ctx, callerConn, domain.OutReceiverOffline, nil)
		}
		return
	}

	log.Info().Str("module", "signal").Str("from", string(p.From)).Str("to", string(p.To)).Str("room", string(p.RoomID)).Msg("start-call: ringing")
	ctl.Hub.Deliver(ctx, calleeConn, domain.OutIncomingCall, struct {
		From   domain.UserID `json:"from"`
		RoomID domain.RoomID `json:"roomId"`
	}{p.From, p.RoomID})
}

type peerPayload struct {
	To domain.UserID `json:"to" validate:"required"`
}

func (ctl *SignalWSController) handleAcceptCall(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	var p peerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad accept-call payload")
		return
	}
	callerConn, ok := ctl.Registry.Resolve(ctx, p.To)
	if !ok {
		log.Debug().Str("module", "signal").Str("to", string(p.To)).Msg("accept-call: caller gone")
		return
	}
	log.Info().Str("module", "signal").Str("to", string(p.To)).Msg("call accepted")
	ctl.Hub.Deliver(ctx, callerConn, domain.OutCallAccepted, nil)
}

func (ctl *SignalWSController) handleRejectCall(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	var p peerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad reject-call payload")
		return
	}
	callerConn, ok := ctl.Registry.Resolve(ctx, p.To)
	if !ok {
		log.Debug().Str("module", "signal").Str("to", string(p.To)).Msg("reject-call: caller gone")
		return
	}
	log.Info().Str("module", "signal").Str("to", string(p.To)).Msg("call rejected")
	ctl.Hub.Deliver(ctx, callerConn, domain.OutCallRejected, nil)
}

type endCallPayload struct {
	To     domain.UserID `json:"to" validate:"required"`
	RoomID domain.RoomID `json:"roomId" validate:"required"`
}

// handleEndCall notifies the whole room, not just the resolved peer: either
// party may hang up and every member, media viewers included, must hear it.
func (ctl *SignalWSController) handleEndCall(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	var p endCallPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad end-call payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("invalid end-call payload")
		return
	}

	if _, ok := ctl.Registry.Resolve(ctx, p.To); !ok {
		log.Debug().Str("module", "signal").Str("to", string(p.To)).Msg("end-call: peer already offline")
	}
	log.Info().Str("module", "signal").Str("room", string(p.RoomID)).Msg("call ended")
	ctl.Hub.BroadcastRoom(ctx, p.RoomID, "", domain.OutCallEnded, nil)
}
