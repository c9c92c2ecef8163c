package models

import "time"

// Server-to-client event types pushed over websocket connections.
const (
	EventReceiveMessage = "receive_message"
	EventTyping         = "typing"
	EventStopTyping     = "stop_typing"
	EventUserJoined     = "user_joined"
	EventMessagesSeen   = "messages_seen"
)

// ServerEvent is broadcasted through websockets.
type ServerEvent struct {
	Type           string      `json:"type"`
	SenderID       int         `json:"sender_id,omitempty"`
	SenderName     string      `json:"sender_name,omitempty"`
	Message        string      `json:"message,omitempty"`
	ReceiverID     int         `json:"receiver_id,omitempty"`
	ConversationID int         `json:"conversation_id,omitempty"`
	ReaderID       int         `json:"reader_id,omitempty"`
	CreatedAt      *time.Time  `json:"created_at,omitempty"`
	User           *PublicUser `json:"user,omitempty"`
}

// Client-to-server events, decoded at the websocket boundary into one of the
// variants below before reaching the delivery engine.

// JoinEvent re-registers the connection under the user's presence set.
type JoinEvent struct {
	UserID int
}

// SendMessageEvent carries an outbound message to a single recipient.
type SendMessageEvent struct {
	ReceiverID int
	Message    string
}

// MarkAsReadEvent flags all unseen messages from SenderID to the reader.
type MarkAsReadEvent struct {
	SenderID int
}

// TypingEvent signals the sender started typing to ReceiverID.
type TypingEvent struct {
	ReceiverID int
}

// StopTypingEvent signals the sender stopped typing.
type StopTypingEvent struct {
	ReceiverID int
}
