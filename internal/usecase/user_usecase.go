package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/pkg/errors"
	"echosocial/pkg/logger"
)

const searchLimit = 20

var usernameSanitizer = regexp.MustCompile(`[^a-z0-9_.]`)

type UserUseCase struct {
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	identity         IdentityProvider
}

func NewUserUseCase(
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	identity IdentityProvider,
) *UserUseCase {
	return &UserUseCase{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		identity:         identity,
	}
}

type UpdateProfileInput struct {
	FirstName      string
	LastName       string
	Username       string
	Bio            string
	Location       string
	ProfilePicture string
	BannerImage    string
}

// Sync makes sure a user document exists for the authenticated uid. It
// reports whether the document was created by this call.
func (uc *UserUseCase) Sync(ctx context.Context, uid string) (*entity.User, bool, error) {
	existing, err := uc.userRepo.GetByID(ctx, uid)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, false, err
	}

	identity, err := uc.identity.GetIdentity(ctx, uid)
	if err != nil {
		return nil, false, errors.Unauthorized("Unable to load identity", err)
	}

	username, err := uc.uniqueUsername(ctx, identity)
	if err != nil {
		return nil, false, err
	}

	firstName, lastName := splitDisplayName(identity.DisplayName)
	now := time.Now()
	user := &entity.User{
		ID:             uid,
		Email:          identity.Email,
		FirstName:      firstName,
		LastName:       lastName,
		Username:       username,
		ProfilePicture: identity.PhotoURL,
		Followers:      []string{},
		Following:      []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, "CONFLICT") {
			// Another sync for the same uid won the race.
			existing, getErr := uc.userRepo.GetByID(ctx, uid)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	logger.Info("User %s synced as @%s", uid, username)
	return user, true, nil
}

// uniqueUsername derives a username from the email's local part, adding a
// uid suffix when the plain form is taken.
func (uc *UserUseCase) uniqueUsername(ctx context.Context, identity *entity.Identity) (string, error) {
	base := strings.ToLower(identity.Email)
	if at := strings.Index(base, "@"); at >= 0 {
		base = base[:at]
	}
	base = usernameSanitizer.ReplaceAllString(base, "")
	if base == "" {
		base = "user"
	}

	_, err := uc.userRepo.GetByUsername(ctx, base)
	if errors.Is(err, "NOT_FOUND") {
		return base, nil
	}
	if err != nil {
		return "", err
	}

	suffix := strings.ToLower(identity.UID)
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return base + "_" + suffix, nil
}

func splitDisplayName(displayName string) (string, string) {
	parts := strings.Fields(displayName)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

func (uc *UserUseCase) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return uc.userRepo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, uid string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if username := strings.ToLower(strings.TrimSpace(input.Username)); username != "" && username != user.Username {
		other, err := uc.userRepo.GetByUsername(ctx, username)
		if err == nil && other.ID != uid {
			return nil, errors.Conflict("Username is already taken")
		}
		if err != nil && !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
		user.Username = username
	}

	if input.FirstName != "" {
		user.FirstName = strings.TrimSpace(input.FirstName)
	}
	if input.LastName != "" {
		user.LastName = strings.TrimSpace(input.LastName)
	}
	if input.Bio != "" {
		user.Bio = input.Bio
	}
	if input.Location != "" {
		user.Location = input.Location
	}
	if input.ProfilePicture != "" {
		user.ProfilePicture = input.ProfilePicture
	}
	if input.BannerImage != "" {
		user.BannerImage = input.BannerImage
	}
	user.UpdatedAt = time.Now()

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Search finds users whose username or first name starts with query,
// excluding the caller.
func (uc *UserUseCase) Search(ctx context.Context, uid, query string) ([]*entity.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.BadRequest("Search query is required", nil)
	}

	found, err := uc.userRepo.Search(ctx, query, searchLimit+1)
	if err != nil {
		return nil, err
	}

	users := make([]*entity.User, 0, len(found))
	for _, user := range found {
		if user.ID == uid {
			continue
		}
		users = append(users, user)
	}
	if len(users) > searchLimit {
		users = users[:searchLimit]
	}
	return users, nil
}

// ToggleFollow follows or unfollows targetID and reports whether the caller
// follows them afterwards.
func (uc *UserUseCase) ToggleFollow(ctx context.Context, uid, targetID string) (bool, error) {
	if uid == targetID {
		return false, errors.BadRequest("You cannot follow yourself", nil)
	}

	following, err := uc.userRepo.ToggleFollow(ctx, uid, targetID)
	if err != nil {
		return false, err
	}

	if following {
		notify(ctx, uc.notificationRepo, &entity.Notification{
			From: uid,
			To:   targetID,
			Type: entity.NotificationFollow,
		})
	}
	return following, nil
}

// RegisterDevice stores the push token for the user, replacing any earlier
// one.
func (uc *UserUseCase) RegisterDevice(ctx context.Context, uid, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.BadRequest("Device token is required", nil)
	}
	return uc.userRepo.SetDeviceToken(ctx, uid, token)
}

// notify records an in-app notification. Failures are logged only.
func notify(ctx context.Context, repo repository.NotificationRepository, notification *entity.Notification) {
	if err := repo.Create(ctx, notification); err != nil {
		logger.Error("Failed to create %s notification for %s: %v", notification.Type, notification.To, err)
	}
}
