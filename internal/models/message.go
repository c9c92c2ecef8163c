package models

import "time"

// Message represents a durable chat message. The seen flag carries pairwise
// semantics: it flips false->true once the other participant marks the
// conversation read, and never reverts.
type Message struct {
	ID             int       `db:"id" json:"id"`
	ConversationID int       `db:"conversation_id" json:"conversation_id"`
	SenderID       int       `db:"sender_id" json:"sender_id"`
	SenderName     string    `db:"sender_name" json:"sender_name,omitempty"`
	Text           string    `db:"text" json:"text"`
	Seen           bool      `db:"seen" json:"seen"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// UnreadCount is one row of the per-sender unread aggregation.
type UnreadCount struct {
	SenderID int `db:"sender_id"`
	Count    int `db:"count"`
}
