package usecase

import (
	"context"
	"strings"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/pkg/errors"
)

type CommentUseCase struct {
	commentRepo      repository.CommentRepository
	postRepo         repository.PostRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
}

func NewCommentUseCase(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
) *CommentUseCase {
	return &CommentUseCase{
		commentRepo:      commentRepo,
		postRepo:         postRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
	}
}

type CommentResponse struct {
	*entity.Comment
	User *entity.UserSummary `json:"user,omitempty"`
}

func (uc *CommentUseCase) ListByPost(ctx context.Context, postID string) ([]*CommentResponse, error) {
	if _, err := uc.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := uc.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	authors := newUserCache(uc.userRepo)
	responses := make([]*CommentResponse, 0, len(comments))
	for _, comment := range comments {
		responses = append(responses, &CommentResponse{
			Comment: comment,
			User:    authors.summary(ctx, comment.UserID),
		})
	}
	return responses, nil
}

// Create adds a comment and notifies the post's author when it is someone
// else.
func (uc *CommentUseCase) Create(ctx context.Context, uid, postID, content string) (*CommentResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.BadRequest("Comment content is required", nil)
	}

	post, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	author, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		PostID:  postID,
		UserID:  uid,
		Content: content,
	}
	if err := uc.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if post.UserID != uid {
		notify(ctx, uc.notificationRepo, &entity.Notification{
			From:      uid,
			To:        post.UserID,
			Type:      entity.NotificationComment,
			PostID:    postID,
			CommentID: comment.ID,
		})
	}

	return &CommentResponse{Comment: comment, User: author.Summary()}, nil
}

func (uc *CommentUseCase) Delete(ctx context.Context, uid, commentID string) error {
	comment, err := uc.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != uid {
		return errors.Forbidden("You can only delete your own comments", nil)
	}
	return uc.commentRepo.Delete(ctx, comment)
}
