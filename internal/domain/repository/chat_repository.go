package repository

import (
	"context"

	"echosocial/internal/domain/entity"
)

// Unsubscribe detaches a live subscription. Calling it more than once is a
// no-op.
type Unsubscribe func()

type ChatRepository interface {
	// FindByParticipants returns the conversation whose participants equal the
	// sorted pair, or a NOT_FOUND AppError.
	FindByParticipants(ctx context.Context, participants []string) (*entity.Conversation, error)
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error)
	UpdateLastMessage(ctx context.Context, conversationID, preview string) error
	SetTyping(ctx context.Context, conversationID, userID string, typing bool) error
	MarkRead(ctx context.Context, conversationID, userID string) error

	CreateMessage(ctx context.Context, conversationID string, message *entity.Message) error
	GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)
	ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error)
	DeleteMessage(ctx context.Context, conversationID, messageID string) error
	SetReaction(ctx context.Context, conversationID, messageID, userID, emoji string) error
	ClearReaction(ctx context.Context, conversationID, messageID, userID string) error

	// WatchMessages calls fn with the full ascending message list on every
	// change until the returned Unsubscribe is called.
	WatchMessages(ctx context.Context, conversationID string, fn func([]*entity.Message)) (Unsubscribe, error)
	// WatchConversation calls fn with the conversation document on every change.
	WatchConversation(ctx context.Context, conversationID string, fn func(*entity.Conversation)) (Unsubscribe, error)
}
