// Package chat implements the two-party conversation protocol on the
// document store: lazy conversation creation with room-id deduplication,
// idempotent message appends and best-effort offline notifications.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"userhive/backend/internal/apperr"
	"userhive/backend/internal/authz"
	"userhive/backend/internal/docstore"
	"userhive/backend/internal/messaging"
	"userhive/backend/internal/models"
)

// UserReader resolves conversation participants.
type UserReader interface {
	FindByID(id uint) (*models.User, error)
}

// PresenceReader exposes the one presence query the engine needs.
type PresenceReader interface {
	InitialStatus(ctx context.Context, id uint) (*models.Status, error)
}

// Emitter is the fire-and-forget side of the messaging client.
type Emitter interface {
	Emit(ctx context.Context, channel string, payload []byte) error
}

// Engine drives conversations and messages.
type Engine struct {
	docs       docstore.Store
	users      UserReader
	presence   PresenceReader
	emitter    Emitter
	collection string
	log        *zap.Logger
}

// NewEngine constructor
func NewEngine(docs docstore.Store, users UserReader, presence PresenceReader, emitter Emitter, collection string, log *zap.Logger) *Engine {
	return &Engine{
		docs:       docs,
		users:      users,
		presence:   presence,
		emitter:    emitter,
		collection: collection,
		log:        log,
	}
}

// RoomID joins two participant ids in creation order.
func RoomID(creatorID, targetID uint) string {
	return fmt.Sprintf("%d.%d", creatorID, targetID)
}

// StartResult is the point-to-point acknowledgment returned to the
// initiator.
type StartResult struct {
	Conversation *models.Conversation `json:"conversation"`
	Target       models.PublicUser    `json:"target"`
}

// Start opens a dialogue with the target, or rejoins the existing one. For
// any unordered participant pair at most one conversation document exists:
// both room-id orderings are checked before creating.
func (e *Engine) Start(ctx context.Context, initiator *models.User, targetID uint) (*StartResult, error) {
	target, err := e.users.FindByID(targetID)
	if err != nil {
		return nil, err
	}
	if !authz.CanStartConversation(initiator, target) {
		return nil, apperr.New(apperr.Forbidden, "Only an owner may start a conversation.")
	}

	roomA := RoomID(initiator.ID, target.ID)
	roomB := RoomID(target.ID, initiator.ID)

	docs, err := e.docs.Query(ctx, e.collection,
		docstore.Group{{Field: "roomId", Value: roomA}},
		docstore.Group{{Field: "roomId", Value: roomB}},
	)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if len(docs) == 0 {
		conversation := &models.Conversation{
			ID:           uuid.NewString(),
			CreatorID:    initiator.ID,
			TargetID:     target.ID,
			RoomID:       roomA,
			Contributors: []uint{initiator.ID},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := e.docs.Set(ctx, e.collection, roomA, conversation); err != nil {
			return nil, err
		}
		return &StartResult{Conversation: conversation, Target: target.Redacted()}, nil
	}

	var conversation models.Conversation
	if err := json.Unmarshal(docs[0], &conversation); err != nil {
		return nil, err
	}

	conversation.AddContributor(initiator.ID)
	conversation.UpdatedAt = now
	err = e.docs.Update(ctx, e.collection, conversation.RoomID, map[string]any{
		"contributors": conversation.Contributors,
		"updatedAt":    now,
	})
	if err != nil {
		return nil, err
	}
	return &StartResult{Conversation: &conversation, Target: target.Redacted()}, nil
}

// Send appends one message to a conversation. The conversation summary and
// the message document commit in one batch; the message id is the idempotency
// key, so a retried send never duplicates the message.
func (e *Engine) Send(ctx context.Context, sender *models.User, in models.SendMessage) (*models.SendMessage, error) {
	docs, err := e.docs.Query(ctx, e.collection, docstore.Group{
		{Field: "roomId", Value: in.RoomID},
		{Field: "id", Value: in.ConversationID},
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperr.New(apperr.NotFound, "Could not found the conversation.")
	}

	var conversation models.Conversation
	if err := json.Unmarshal(docs[0], &conversation); err != nil {
		return nil, err
	}

	targetID := conversation.TargetOf(sender.ID)
	now := time.Now()

	message := in.Message
	message.UserID = sender.ID
	message.Status = models.MessageSuccess
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now
	}
	message.UpdatedAt = now

	conversation.AddContributor(targetID)
	conversation.LastMessage = &message

	err = e.docs.Batch(ctx, func(b *docstore.Batch) {
		b.Update(e.collection, conversation.RoomID, map[string]any{
			"contributors": conversation.Contributors,
			"lastMessage":  message,
			"updatedAt":    now,
		})
		b.Set(e.messagesCollection(conversation.RoomID), message.ID, message)
	})
	if err != nil {
		return nil, err
	}

	e.notifyIfOffline(ctx, targetID, &conversation, &message)

	in.Message = message
	return &in, nil
}

// Messages lists a conversation's messages, oldest key first.
func (e *Engine) Messages(ctx context.Context, roomID string) ([]models.Message, error) {
	docs, err := e.docs.Query(ctx, e.messagesCollection(roomID))
	if err != nil {
		return nil, err
	}
	messages := make([]models.Message, 0, len(docs))
	for _, doc := range docs {
		var message models.Message
		if err := json.Unmarshal(doc, &message); err != nil {
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (e *Engine) messagesCollection(roomID string) string {
	return fmt.Sprintf("%s/%s/messages", e.collection, roomID)
}

// notifyIfOffline emits a message-created notification when the target's
// presence record shows a last connection. A target with no record at all has
// never connected and gets nothing. Best effort: failures are logged and
// dropped.
func (e *Engine) notifyIfOffline(ctx context.Context, targetID uint, conversation *models.Conversation, message *models.Message) {
	status, err := e.presence.InitialStatus(ctx, targetID)
	if err != nil {
		e.log.Warn("presence lookup failed", zap.Uint("target", targetID), zap.Error(err))
		return
	}
	if status == nil || status.LastConnection == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"targetId":       targetID,
		"roomId":         conversation.RoomID,
		"conversationId": conversation.ID,
		"message":        message,
	})
	if err != nil {
		return
	}
	if err := e.emitter.Emit(ctx, messaging.ChannelCreatedMessageNotification, payload); err != nil {
		e.log.Warn("offline notification failed", zap.Uint("target", targetID), zap.Error(err))
	}
}
