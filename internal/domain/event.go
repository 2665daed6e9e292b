package domain

import "encoding/json"

// Event is the closed set of inbound signal kinds. The wire carries the
// string names below; dispatch happens on the parsed value so a handler
// switch stays exhaustive.
type Event uint8

const (
	EventUnknown Event = iota
	EventJoin
	EventTyping
	EventSendMessage
	EventStartCall
	EventAcceptCall
	EventRejectCall
	EventEndCall
	EventJoinRoom
	EventOffer
	EventAnswer
	EventICECandidate
)

var eventNames = map[Event]string{
	EventJoin:         "join",
	EventTyping:       "typing",
	EventSendMessage:  "send-message",
	EventStartCall:    "start-call",
	EventAcceptCall:   "accept-call",
	EventRejectCall:   "reject-call",
	EventEndCall:      "end-call",
	EventJoinRoom:     "join-room",
	EventOffer:        "offer",
	EventAnswer:       "answer",
	EventICECandidate: "ice-candidate",
}

var eventByName = func() map[string]Event {
	m := make(map[string]Event, len(eventNames))
	for e, name := range eventNames {
		m[name] = e
	}
	return m
}()

func ParseEvent(name string) Event {
	return eventByName[name]
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "unknown"
}

// Outbound event names. These are produced, never parsed.
const (
	OutIsTyping        = "is-typing"
	OutReceivedMessage = "received-message"
	OutIncomingCall    = "incoming-call"
	OutReceiverOffline = "receiver-offline"
	OutCallAccepted    = "call-accepted"
	OutCallRejected    = "call-rejected"
	OutCallEnded       = "call-ended"
	OutUserJoined      = "user-joined"
	OutOffer           = "offer"
	OutAnswer          = "answer"
	OutICECandidate    = "ice-candidate"
)

// Envelope is the wire framing for both directions: an event name plus its
// raw payload. Data stays opaque until the handler for the event parses it.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
