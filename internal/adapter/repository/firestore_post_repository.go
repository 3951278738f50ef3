package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/pkg/errors"
	"echosocial/pkg/logger"
)

type firestorePostRepository struct {
	client *firestore.Client
}

func NewFirestorePostRepository(client *firestore.Client) repository.PostRepository {
	return &firestorePostRepository{
		client: client,
	}
}

func (r *firestorePostRepository) posts() *firestore.CollectionRef {
	return r.client.Collection("posts")
}

func (r *firestorePostRepository) Create(ctx context.Context, post *entity.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []string{}
	}

	if _, err := r.posts().Doc(post.ID).Set(ctx, post); err != nil {
		return errors.Internal("Failed to create post", err)
	}
	return nil
}

func (r *firestorePostRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	doc, err := r.posts().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Post", err)
		}
		return nil, errors.Internal("Failed to get post", err)
	}

	var post entity.Post
	if err := doc.DataTo(&post); err != nil {
		return nil, errors.Internal("Failed to parse post data", err)
	}
	return &post, nil
}

func (r *firestorePostRepository) List(ctx context.Context, limit, offset int) ([]*entity.Post, int64, error) {
	query := r.posts().OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while counting posts: %v", err)
		return nil, 0, errors.Internal("Failed to count posts", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	posts, err := collectPosts(query.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *firestorePostRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Post, error) {
	query := r.posts().Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc)
	return collectPosts(query.Documents(ctx))
}

func collectPosts(iter *firestore.DocumentIterator) ([]*entity.Post, error) {
	defer iter.Stop()

	posts := []*entity.Post{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate posts", err)
		}

		var post entity.Post
		if err := doc.DataTo(&post); err != nil {
			return nil, errors.Internal("Failed to parse post data", err)
		}
		posts = append(posts, &post)
	}
	return posts, nil
}

func (r *firestorePostRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	ref := r.posts().Doc(postID)

	var liked bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var post entity.Post
		if err := doc.DataTo(&post); err != nil {
			return err
		}

		liked = !post.LikedBy(userID)
		var op interface{} = firestore.ArrayRemove(userID)
		if liked {
			op = firestore.ArrayUnion(userID)
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "likes", Value: op},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, errors.NotFound("Post", err)
		}
		return false, errors.Internal("Failed to update like", err)
	}

	return liked, nil
}

func (r *firestorePostRepository) Delete(ctx context.Context, id string) error {
	ref := r.posts().Doc(id)
	comments := r.client.Collection("comments").Where("postId", "==", id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(comments).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := tx.Delete(doc.Ref); err != nil {
				return err
			}
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return errors.Internal("Failed to delete post", err)
	}
	return nil
}
