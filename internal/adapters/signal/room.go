package signal

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/domain"
)

type joinRoomPayload struct {
	RoomID domain.RoomID `json:"roomId" validate:"required"`
}

// handleJoinRoom adds the connection to the named group and announces it to
// the members already there. Rooms come into being on first join.
func (ctl *SignalWSController) handleJoinRoom(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	var p joinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join-room payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("invalid join-room payload")
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(conn.ID())).Str("room", string(p.RoomID)).Msg("join room")
	ctl.Rooms.Join(p.RoomID, conn.ID())
	ctl.Hub.BroadcastRoom(ctx, p.RoomID, conn.ID(), domain.OutUserJoined, string(conn.ID()))
}

// WebRTC negotiation passthrough. The relay never interprets SDP or
// candidates — it tags the payload with the sender's connection id and fans
// it out to the rest of the room.

type sdpPayload struct {
	RoomID domain.RoomID `json:"roomId" validate:"required"`
	SDP    string        `json:"sdp" validate:"required"`
}

func (ctl *SignalWSController) handleOffer(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	ctl.relaySDP(ctx, conn, data, domain.OutOffer)
}

func (ctl *SignalWSController) handleAnswer(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	ctl.relaySDP(ctx, conn, data, domain.OutAnswer)
}

func (ctl *SignalWSController) relaySDP(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
	event string,
) {
	var p sdpPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("bad sdp payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", event).Msg("invalid sdp payload")
		return
	}

	ctl.Hub.BroadcastRoom(ctx, p.RoomID, conn.ID(), event, struct {
		Sender string `json:"sender"`
		SDP    string `json:"sdp"`
	}{string(conn.ID()), p.SDP})
}

type candidatePayload struct {
	RoomID    domain.RoomID           `json:"roomId" validate:"required"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

func (ctl *SignalWSController) handleCandidate(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) {
	var p candidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("invalid candidate payload")
		return
	}

	ctl.Hub.BroadcastRoom(ctx, p.RoomID, conn.ID(), domain.OutICECandidate, struct {
		Sender    string                  `json:"sender"`
		Candidate webrtc.ICECandidateInit `json:"candidate"`
	}{string(conn.ID()), p.Candidate})
}
