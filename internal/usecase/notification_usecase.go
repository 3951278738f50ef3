package usecase

import (
	"context"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/pkg/errors"
)

type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
}

func NewNotificationUseCase(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

type NotificationResponse struct {
	*entity.Notification
	FromUser *entity.UserSummary `json:"from_user,omitempty"`
}

func (uc *NotificationUseCase) List(ctx context.Context, uid string) ([]*NotificationResponse, error) {
	notifications, err := uc.notificationRepo.ListForUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	senders := newUserCache(uc.userRepo)
	responses := make([]*NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, &NotificationResponse{
			Notification: notification,
			FromUser:     senders.summary(ctx, notification.From),
		})
	}
	return responses, nil
}

// Delete removes a notification addressed to the caller.
func (uc *NotificationUseCase) Delete(ctx context.Context, uid, id string) error {
	notification, err := uc.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if notification.To != uid {
		return errors.Forbidden("You can only delete your own notifications", nil)
	}
	return uc.notificationRepo.Delete(ctx, id)
}
