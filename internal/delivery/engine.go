package delivery

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"messenger-service/internal/auth"
	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
)

// Pusher delivers server events to live connections.
type Pusher interface {
	PushToUser(userID int, event models.ServerEvent)
	Broadcast(event models.ServerEvent)
}

// Engine turns inbound client events into persisted state changes and
// outbound pushes. Persistence success is a precondition for fan-out: a
// message is never delivered live unless it is already durably recorded.
type Engine struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	pusher        Pusher
	logger        *zap.SugaredLogger
}

// NewEngine constructs an Engine.
func NewEngine(conversations repositories.ConversationRepository, messages repositories.MessageRepository, pusher Pusher, logger *zap.SugaredLogger) *Engine {
	return &Engine{
		conversations: conversations,
		messages:      messages,
		pusher:        pusher,
		logger:        logger,
	}
}

// SendMessage persists an outbound message and pushes it to every live
// connection of the recipient. Malformed events are dropped without a
// client-visible error; an offline recipient is not an error either, the
// message stays queued in the log for later retrieval.
func (e *Engine) SendMessage(ctx context.Context, sender auth.Identity, event models.SendMessageEvent) {
	if sender.UserID == 0 || event.ReceiverID <= 0 || strings.TrimSpace(event.Message) == "" {
		e.drop("send_message", "malformed", sender)
		return
	}
	if event.ReceiverID == sender.UserID {
		e.drop("send_message", "self_message", sender)
		return
	}

	conv, err := e.conversations.ResolveOrCreatePairwise(ctx, sender.UserID, event.ReceiverID)
	if err != nil {
		e.logger.Warnw("resolve conversation failed", "sender_id", sender.UserID, "receiver_id", event.ReceiverID, "error", err)
		observability.IncDeliveryFailure("resolve")
		return
	}

	msg, err := e.messages.Append(ctx, conv.ID, sender.UserID, event.Message)
	if err != nil {
		if errors.Is(err, repositories.ErrEmptyText) {
			e.drop("send_message", "malformed", sender)
			return
		}
		e.logger.Warnw("persist message failed", "conversation_id", conv.ID, "sender_id", sender.UserID, "error", err)
		observability.IncDeliveryFailure("persist")
		return
	}

	e.pusher.PushToUser(event.ReceiverID, models.ServerEvent{
		Type:           models.EventReceiveMessage,
		SenderID:       sender.UserID,
		SenderName:     sender.Username,
		Message:        msg.Text,
		ReceiverID:     event.ReceiverID,
		ConversationID: conv.ID,
		CreatedAt:      &msg.CreatedAt,
	})
	observability.IncMessageDelivered()
}

// MarkAsRead flips the unseen messages from the given sender to the reader,
// then notifies the sender's live handles that their messages were seen.
// Re-reading an already read conversation is a no-op.
func (e *Engine) MarkAsRead(ctx context.Context, reader auth.Identity, event models.MarkAsReadEvent) {
	if reader.UserID == 0 || event.SenderID <= 0 {
		e.drop("mark_as_read", "malformed", reader)
		return
	}

	conv, err := e.conversations.FindPairwise(ctx, event.SenderID, reader.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			// nothing exchanged yet, nothing to mark
			return
		}
		e.logger.Warnw("find conversation failed", "reader_id", reader.UserID, "sender_id", event.SenderID, "error", err)
		observability.IncDeliveryFailure("resolve")
		return
	}

	if err := e.messages.MarkSeen(ctx, conv.ID, event.SenderID); err != nil {
		e.logger.Warnw("mark seen failed", "conversation_id", conv.ID, "error", err)
		observability.IncDeliveryFailure("persist")
		return
	}

	e.pusher.PushToUser(event.SenderID, models.ServerEvent{
		Type:           models.EventMessagesSeen,
		ReaderID:       reader.UserID,
		ConversationID: conv.ID,
	})
}

// Typing forwards an ephemeral typing notification. Nothing is persisted and
// an offline receiver silently misses it.
func (e *Engine) Typing(sender auth.Identity, event models.TypingEvent) {
	if sender.UserID == 0 || event.ReceiverID <= 0 {
		e.drop("typing", "malformed", sender)
		return
	}
	e.pusher.PushToUser(event.ReceiverID, models.ServerEvent{
		Type:       models.EventTyping,
		SenderID:   sender.UserID,
		SenderName: sender.Username,
	})
}

// StopTyping forwards the end-of-typing notification.
func (e *Engine) StopTyping(sender auth.Identity, event models.StopTypingEvent) {
	if sender.UserID == 0 || event.ReceiverID <= 0 {
		e.drop("stop_typing", "malformed", sender)
		return
	}
	e.pusher.PushToUser(event.ReceiverID, models.ServerEvent{
		Type:     models.EventStopTyping,
		SenderID: sender.UserID,
	})
}

func (e *Engine) drop(event string, reason string, sender auth.Identity) {
	e.logger.Debugw("event dropped", "event", event, "reason", reason, "user_id", sender.UserID)
	observability.IncEventDropped(event, reason)
}
