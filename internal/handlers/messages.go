package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// MessageHandler serves the history and unread-count query interface.
type MessageHandler struct {
	users         repositories.UserRepository
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	historyLimit  int
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(users repositories.UserRepository, conversations repositories.ConversationRepository, messages repositories.MessageRepository, historyLimit int) *MessageHandler {
	return &MessageHandler{
		users:         users,
		conversations: conversations,
		messages:      messages,
		historyLimit:  historyLimit,
	}
}

// GetMessages returns the conversation history between the authenticated user
// and the receiver, ascending by creation time. Unauthenticated callers get
// an empty sequence, not an error.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID := c.GetInt("userID")
	if userID == 0 {
		c.JSON(http.StatusOK, gin.H{"messages": []models.Message{}})
		return
	}

	receiverID, err := strconv.Atoi(c.Param("receiver_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receiver id"})
		return
	}

	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	conv, err := h.conversations.FindPairwise(c.Request.Context(), userID, receiverID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConversationNotFound):
			c.JSON(http.StatusOK, gin.H{"messages": []models.Message{}})
		case errors.Is(err, repositories.ErrSelfConversation):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receiver id"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		}
		return
	}

	msgs, err := h.messages.ListByConversation(c.Request.Context(), conv.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetUnreadCounts returns the per-sender unseen counts for the authenticated
// user as recipient. Unauthenticated callers get an empty mapping.
func (h *MessageHandler) GetUnreadCounts(c *gin.Context) {
	userID := c.GetInt("userID")
	if userID == 0 {
		c.JSON(http.StatusOK, map[string]int{})
		return
	}

	counts, err := h.messages.CountUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load unread counts"})
		return
	}

	resp := make(map[string]int, len(counts))
	for senderID, count := range counts {
		resp[strconv.Itoa(senderID)] = count
	}
	c.JSON(http.StatusOK, resp)
}

// ListUsers returns every user except the caller, for the recipient roster.
func (h *MessageHandler) ListUsers(c *gin.Context) {
	userID := c.GetInt("userID")

	users, err := h.users.ListOtherUsers(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	if users == nil {
		users = []models.PublicUser{}
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetConversationMembers returns the members of a conversation the caller
// belongs to.
func (h *MessageHandler) GetConversationMembers(c *gin.Context) {
	conversationID, err := strconv.Atoi(c.Param("conversation_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.conversations.IsMember(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation member"})
		return
	}

	members, err := h.conversations.MembersOf(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}
