package usecase

import (
	"context"

	"echosocial/internal/domain/entity"
)

// IdentityProvider resolves an authenticated uid to the provider's record.
type IdentityProvider interface {
	GetIdentity(ctx context.Context, uid string) (*entity.Identity, error)
}

// MessageNotifier is told about every message written to a conversation.
type MessageNotifier interface {
	Dispatch(ctx context.Context, conversationID, senderID string, message *entity.Message)
}
