package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
)

// ConversationRepository abstracts conversation and membership persistence.
type ConversationRepository interface {
	ResolveOrCreatePairwise(ctx context.Context, userA int, userB int) (models.Conversation, error)
	FindPairwise(ctx context.Context, userA int, userB int) (models.Conversation, error)
	MembersOf(ctx context.Context, conversationID int) ([]models.PublicUser, error)
	IsMember(ctx context.Context, conversationID int, userID int) (bool, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// pairKey derives the canonical, order-independent key for two user ids.
func pairKey(userA int, userB int) string {
	ids := []int{userA, userB}
	sort.Ints(ids)
	return fmt.Sprintf("%d:%d", ids[0], ids[1])
}

// ResolveOrCreatePairwise returns the conversation for an unordered pair of
// users, creating it plus both membership rows if it does not exist. Two
// concurrent first contacts race on the pair_key unique constraint; the loser
// falls back to looking up the winner's row.
func (r *ConversationRepo) ResolveOrCreatePairwise(ctx context.Context, userA int, userB int) (models.Conversation, error) {
	if userA == userB {
		return models.Conversation{}, ErrSelfConversation
	}
	key := pairKey(userA, userB)

	conv, err := r.findByPairKey(ctx, key)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return models.Conversation{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowxContext(ctx, `INSERT INTO conversations (pair_key) VALUES ($1)
        ON CONFLICT (pair_key) DO NOTHING
        RETURNING id, name, pair_key, created_at`, key).
		Scan(&conv.ID, &conv.Name, &conv.PairKey, &conv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// another writer created it first
		tx.Rollback()
		err = nil
		return r.findByPairKey(ctx, key)
	}
	if err != nil {
		return models.Conversation{}, err
	}

	for _, id := range []int{userA, userB} {
		if _, err = tx.ExecContext(ctx, `INSERT INTO conversation_members (conversation_id, user_id) VALUES ($1, $2)
            ON CONFLICT (conversation_id, user_id) DO NOTHING`, conv.ID, id); err != nil {
			return models.Conversation{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// FindPairwise looks up the conversation for a pair without creating it.
func (r *ConversationRepo) FindPairwise(ctx context.Context, userA int, userB int) (models.Conversation, error) {
	if userA == userB {
		return models.Conversation{}, ErrSelfConversation
	}
	return r.findByPairKey(ctx, pairKey(userA, userB))
}

func (r *ConversationRepo) findByPairKey(ctx context.Context, key string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT id, name, pair_key, created_at FROM conversations WHERE pair_key=$1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// MembersOf returns the users belonging to a conversation.
func (r *ConversationRepo) MembersOf(ctx context.Context, conversationID int) ([]models.PublicUser, error) {
	var members []models.PublicUser
	err := r.db.SelectContext(ctx, &members, `SELECT u.id, u.username FROM users u
        INNER JOIN conversation_members cm ON cm.user_id = u.id
        WHERE cm.conversation_id=$1 ORDER BY u.id ASC`, conversationID)
	return members, err
}

// IsMember checks membership.
func (r *ConversationRepo) IsMember(ctx context.Context, conversationID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM conversation_members WHERE conversation_id=$1 AND user_id=$2)`, conversationID, userID)
	return exists, err
}
