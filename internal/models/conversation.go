package models

import (
	"database/sql"
	"time"
)

// Conversation groups a set of participating users and their messages.
// Pairwise conversations carry a canonical pair key so the same two users
// always resolve to the same row regardless of who starts the chat.
type Conversation struct {
	ID        int            `db:"id" json:"id"`
	Name      sql.NullString `db:"name" json:"name,omitempty"`
	PairKey   sql.NullString `db:"pair_key" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// ConversationMember is the membership join row.
type ConversationMember struct {
	ConversationID int `db:"conversation_id" json:"conversation_id"`
	UserID         int `db:"user_id" json:"user_id"`
}
