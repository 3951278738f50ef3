package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/pkg/errors"
	"echosocial/pkg/logger"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) users() *firestore.CollectionRef {
	return r.client.Collection("users")
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	if _, err := r.users().Doc(user.ID).Create(ctx, user); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("User already exists")
		}
		return errors.Internal("Failed to create user", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.users().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	return userFromDoc(doc)
}

func (r *firestoreUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	iter := r.users().Where("username", "==", username).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("User", nil)
		}
		return nil, errors.Internal("Failed to query user", err)
	}

	return userFromDoc(doc)
}

func (r *firestoreUserRepository) Update(ctx context.Context, user *entity.User) error {
	logger.Debug("Updating user in Firestore, ID: %s", user.ID)

	updateData := map[string]interface{}{
		"firstName":      user.FirstName,
		"lastName":       user.LastName,
		"username":       user.Username,
		"profilePicture": user.ProfilePicture,
		"bannerImage":    user.BannerImage,
		"bio":            user.Bio,
		"location":       user.Location,
		"updatedAt":      time.Now(),
	}

	if _, err := r.users().Doc(user.ID).Set(ctx, updateData, firestore.MergeAll); err != nil {
		logger.Error("Firestore update error for user %s: %v", user.ID, err)
		return errors.Internal("Failed to update user", err)
	}
	return nil
}

func (r *firestoreUserRepository) Search(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	seen := make(map[string]bool)
	var users []*entity.User

	for _, field := range []string{"username", "firstName"} {
		q := r.users().
			Where(field, ">=", query).
			Where(field, "<=", query+"\uf8ff").
			Limit(limit)

		docs, err := q.Documents(ctx).GetAll()
		if err != nil {
			return nil, errors.Internal("Failed to search users", err)
		}

		for _, doc := range docs {
			if seen[doc.Ref.ID] {
				continue
			}
			user, err := userFromDoc(doc)
			if err != nil {
				return nil, err
			}
			seen[doc.Ref.ID] = true
			users = append(users, user)
		}
	}

	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (r *firestoreUserRepository) ToggleFollow(ctx context.Context, followerID, targetID string) (bool, error) {
	followerRef := r.users().Doc(followerID)
	targetRef := r.users().Doc(targetID)

	var following bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		followerDoc, err := tx.Get(followerRef)
		if err != nil {
			return err
		}
		if _, err := tx.Get(targetRef); err != nil {
			return err
		}

		follower, err := userFromDoc(followerDoc)
		if err != nil {
			return err
		}

		following = !follower.IsFollowing(targetID)
		var followOp, followerOp interface{} = firestore.ArrayRemove(targetID), firestore.ArrayRemove(followerID)
		if following {
			followOp, followerOp = firestore.ArrayUnion(targetID), firestore.ArrayUnion(followerID)
		}

		now := time.Now()
		if err := tx.Update(followerRef, []firestore.Update{
			{Path: "following", Value: followOp},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}
		return tx.Update(targetRef, []firestore.Update{
			{Path: "followers", Value: followerOp},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, errors.NotFound("User", err)
		}
		return false, errors.Internal("Failed to update follow state", err)
	}

	return following, nil
}

func (r *firestoreUserRepository) SetDeviceToken(ctx context.Context, userID, token string) error {
	_, err := r.users().Doc(userID).Update(ctx, []firestore.Update{
		{Path: "deviceToken", Value: token},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to register device", err)
	}
	return nil
}

func userFromDoc(doc *firestore.DocumentSnapshot) (*entity.User, error) {
	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	if user.ID == "" {
		user.ID = doc.Ref.ID
	}
	return &user, nil
}
