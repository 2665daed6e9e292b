package domain

import "time"

// ChatMessage is the live-delivery view of a chat message. The relay
// forwards the original payload verbatim; this struct only extracts the
// fields the core needs for routing and persistence.
type ChatMessage struct {
	SenderID   UserID    `json:"senderId"`
	ReceiverID UserID    `json:"receiverId" validate:"required"`
	Text       string    `json:"text"`
	SentAt     time.Time `json:"sentAt,omitempty"`
}
