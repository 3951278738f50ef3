package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/pkg/errors"
)

type firestoreCommentRepository struct {
	client *firestore.Client
}

func NewFirestoreCommentRepository(client *firestore.Client) repository.CommentRepository {
	return &firestoreCommentRepository{
		client: client,
	}
}

func (r *firestoreCommentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	comment.CreatedAt = time.Now()
	if comment.Likes == nil {
		comment.Likes = []string{}
	}

	postRef := r.client.Collection("posts").Doc(comment.PostID)
	commentRef := r.client.Collection("comments").Doc(comment.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(postRef); err != nil {
			return err
		}
		if err := tx.Create(commentRef, comment); err != nil {
			return err
		}
		return tx.Update(postRef, []firestore.Update{
			{Path: "comments", Value: firestore.ArrayUnion(comment.ID)},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Post", err)
		}
		return errors.Internal("Failed to create comment", err)
	}
	return nil
}

func (r *firestoreCommentRepository) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	doc, err := r.client.Collection("comments").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Comment", err)
		}
		return nil, errors.Internal("Failed to get comment", err)
	}

	var comment entity.Comment
	if err := doc.DataTo(&comment); err != nil {
		return nil, errors.Internal("Failed to parse comment data", err)
	}
	return &comment, nil
}

func (r *firestoreCommentRepository) ListByPost(ctx context.Context, postID string) ([]*entity.Comment, error) {
	docs, err := r.client.Collection("comments").
		Where("postId", "==", postID).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list comments", err)
	}

	comments := make([]*entity.Comment, 0, len(docs))
	for _, doc := range docs {
		var comment entity.Comment
		if err := doc.DataTo(&comment); err != nil {
			return nil, errors.Internal("Failed to parse comment data", err)
		}
		comments = append(comments, &comment)
	}
	return comments, nil
}

func (r *firestoreCommentRepository) Delete(ctx context.Context, comment *entity.Comment) error {
	postRef := r.client.Collection("posts").Doc(comment.PostID)
	commentRef := r.client.Collection("comments").Doc(comment.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		postDoc, err := tx.Get(postRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err := tx.Delete(commentRef); err != nil {
			return err
		}
		if postDoc == nil || !postDoc.Exists() {
			return nil
		}
		return tx.Update(postRef, []firestore.Update{
			{Path: "comments", Value: firestore.ArrayRemove(comment.ID)},
		})
	})
	if err != nil {
		return errors.Internal("Failed to delete comment", err)
	}
	return nil
}
