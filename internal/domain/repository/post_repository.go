package repository

import (
	"context"

	"echosocial/internal/domain/entity"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	// List returns posts newest first. limit <= 0 returns everything.
	List(ctx context.Context, limit, offset int) ([]*entity.Post, int64, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Post, error)
	// ToggleLike reports whether userID likes the post after the call.
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
	// Delete removes the post together with its comments.
	Delete(ctx context.Context, id string) error
}

type CommentRepository interface {
	// Create stores the comment and appends its id to the post.
	Create(ctx context.Context, comment *entity.Comment) error
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*entity.Comment, error)
	Delete(ctx context.Context, comment *entity.Comment) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	ListForUser(ctx context.Context, userID string) ([]*entity.Notification, error)
	Delete(ctx context.Context, id string) error
}
