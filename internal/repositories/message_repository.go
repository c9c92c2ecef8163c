package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

var ErrEmptyText = errors.New("message text is empty")

const defaultHistoryLimit = 50

// MessageRepository defines interactions with the durable message log.
type MessageRepository interface {
	Append(ctx context.Context, conversationID int, senderID int, text string) (models.Message, error)
	ListByConversation(ctx context.Context, conversationID int, limit int) ([]models.Message, error)
	CountUnread(ctx context.Context, recipientID int) (map[int]int, error)
	MarkSeen(ctx context.Context, conversationID int, senderID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores a message with a server-assigned id and timestamp. The insert
// is a single statement, so the message is either fully persisted or not at
// all. Unknown conversation or sender ids surface via the foreign keys.
func (r *MessageRepo) Append(ctx context.Context, conversationID int, senderID int, text string) (models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return models.Message{}, ErrEmptyText
	}

	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (conversation_id, sender_id, text) VALUES ($1, $2, $3)
        RETURNING id, conversation_id, sender_id, text, seen, created_at`, conversationID, senderID, text).
		Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Text, &msg.Seen, &msg.CreatedAt)
	if mapped := messageInsertError(err); mapped != nil {
		return models.Message{}, mapped
	}
	return msg, err
}

// messageInsertError translates foreign key violations on the messages insert
// into sentinel errors, keyed on which constraint fired. Other errors pass
// through unchanged.
func messageInsertError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23503" {
		return nil
	}
	if strings.Contains(pqErr.Constraint, "sender") {
		return ErrUserNotFound
	}
	return ErrConversationNotFound
}

// ListByConversation returns the most recent limit messages of a conversation
// in ascending creation order. The query takes them descending and the slice
// is reversed for display.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID int, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT m.id, m.conversation_id, m.sender_id, u.username AS sender_name, m.text, m.seen, m.created_at
        FROM messages m
        INNER JOIN users u ON u.id = m.sender_id
        WHERE m.conversation_id=$1
        ORDER BY m.created_at DESC, m.id DESC
        LIMIT $2`, conversationID, normalizeHistoryLimit(limit))
	if err != nil {
		return nil, err
	}

	reverseChronological(msgs)
	return msgs, nil
}

func normalizeHistoryLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	return limit
}

// reverseChronological flips a newest-first query result into ascending
// creation order for display.
func reverseChronological(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

// CountUnread groups unseen messages addressed to the recipient by sender.
func (r *MessageRepo) CountUnread(ctx context.Context, recipientID int) (map[int]int, error) {
	var rows []models.UnreadCount
	err := r.db.SelectContext(ctx, &rows, `SELECT m.sender_id, COUNT(*) AS count
        FROM messages m
        INNER JOIN conversation_members cm ON cm.conversation_id = m.conversation_id AND cm.user_id=$1
        WHERE m.sender_id<>$1 AND m.seen = FALSE
        GROUP BY m.sender_id`, recipientID)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.SenderID] = row.Count
	}
	return counts, nil
}

// MarkSeen flips seen for every unseen message from the sender in the
// conversation. Idempotent: updating nothing is not an error.
func (r *MessageRepo) MarkSeen(ctx context.Context, conversationID int, senderID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET seen = TRUE
        WHERE conversation_id=$1 AND sender_id=$2 AND seen = FALSE`, conversationID, senderID)
	return err
}
