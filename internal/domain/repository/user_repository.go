package repository

import (
	"context"

	"echosocial/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// Search does a prefix match on username and first name.
	Search(ctx context.Context, query string, limit int) ([]*entity.User, error)
	// ToggleFollow flips follower/following on both users atomically and
	// reports whether followerID now follows targetID.
	ToggleFollow(ctx context.Context, followerID, targetID string) (bool, error)
	SetDeviceToken(ctx context.Context, userID, token string) error
}
