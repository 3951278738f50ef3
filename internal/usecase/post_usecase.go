package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/internal/domain/service"
	"echosocial/pkg/errors"
	"echosocial/pkg/logger"
)

type PostUseCase struct {
	postRepo         repository.PostRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	fileService      service.FileUploadService
}

func NewPostUseCase(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	fileService service.FileUploadService,
) *PostUseCase {
	return &PostUseCase{
		postRepo:         postRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		fileService:      fileService,
	}
}

type CreatePostInput struct {
	Content string
	Image   string

	// ImageFile, when set, is uploaded and replaces Image.
	ImageFile        io.Reader
	ImageContentType string
}

type PostResponse struct {
	*entity.Post
	User *entity.UserSummary `json:"user,omitempty"`
}

func (uc *PostUseCase) Create(ctx context.Context, uid string, input CreatePostInput) (*PostResponse, error) {
	content := strings.TrimSpace(input.Content)
	image := strings.TrimSpace(input.Image)

	if input.ImageFile != nil {
		if !strings.HasPrefix(input.ImageContentType, "image/") {
			return nil, errors.BadRequest("Post image must be an image file", nil)
		}
		if uc.fileService == nil {
			return nil, errors.Internal("Image uploads are not configured", nil)
		}
		url, err := uc.fileService.UploadFile(ctx, input.ImageFile, input.ImageContentType, "posts")
		if err != nil {
			return nil, errors.Internal("Failed to upload image", err)
		}
		image = url
	}

	if content == "" && image == "" {
		return nil, errors.BadRequest("Post must contain either text or image", nil)
	}

	author, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	post := &entity.Post{
		UserID:  uid,
		Content: content,
		Image:   image,
	}
	if err := uc.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return &PostResponse{Post: post, User: author.Summary()}, nil
}

func (uc *PostUseCase) List(ctx context.Context, limit, offset int) ([]*PostResponse, int64, error) {
	posts, total, err := uc.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return uc.withAuthors(ctx, posts), total, nil
}

func (uc *PostUseCase) Get(ctx context.Context, id string) (*PostResponse, error) {
	post, err := uc.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.withAuthors(ctx, []*entity.Post{post})[0], nil
}

func (uc *PostUseCase) ListByUsername(ctx context.Context, username string) ([]*PostResponse, error) {
	user, err := uc.userRepo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}

	posts, err := uc.postRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]*PostResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, &PostResponse{Post: post, User: user.Summary()})
	}
	return responses, nil
}

// ToggleLike likes or unlikes a post and reports whether the caller likes it
// afterwards. Liking someone else's post notifies its author.
func (uc *PostUseCase) ToggleLike(ctx context.Context, uid, postID string) (bool, error) {
	post, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil {
		return false, err
	}

	liked, err := uc.postRepo.ToggleLike(ctx, postID, uid)
	if err != nil {
		return false, err
	}

	if liked && post.UserID != uid {
		notify(ctx, uc.notificationRepo, &entity.Notification{
			From:   uid,
			To:     post.UserID,
			Type:   entity.NotificationLike,
			PostID: postID,
		})
	}
	return liked, nil
}

// Delete removes the caller's own post along with its comments.
func (uc *PostUseCase) Delete(ctx context.Context, uid, postID string) error {
	post, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != uid {
		return errors.Forbidden("You can only delete your own posts", nil)
	}

	if err := uc.postRepo.Delete(ctx, postID); err != nil {
		return err
	}

	if post.Image != "" && uc.fileService != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := uc.fileService.DeleteFile(ctx, post.Image); err != nil {
			logger.Warn("Post %s deleted but image cleanup failed: %v", postID, err)
		}
	}
	return nil
}

func (uc *PostUseCase) withAuthors(ctx context.Context, posts []*entity.Post) []*PostResponse {
	authors := newUserCache(uc.userRepo)

	responses := make([]*PostResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, &PostResponse{
			Post: post,
			User: authors.summary(ctx, post.UserID),
		})
	}
	return responses
}

// userCache memoizes user summaries while building one response.
type userCache struct {
	repo  repository.UserRepository
	users map[string]*entity.UserSummary
}

func newUserCache(repo repository.UserRepository) *userCache {
	return &userCache{repo: repo, users: make(map[string]*entity.UserSummary)}
}

func (c *userCache) summary(ctx context.Context, id string) *entity.UserSummary {
	if summary, ok := c.users[id]; ok {
		return summary
	}

	user, err := c.repo.GetByID(ctx, id)
	if err != nil {
		logger.Warn("User %s lookup failed: %v", id, err)
		c.users[id] = nil
		return nil
	}
	c.users[id] = user.Summary()
	return c.users[id]
}
