package usecase

import (
	"context"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/internal/domain/service"
	"echosocial/pkg/logger"
	"echosocial/pkg/metrics"
)

// NotificationDispatcher sends a best-effort push to every other participant
// of a conversation after a message is written.
type NotificationDispatcher struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	pushService service.PushService
}

func NewNotificationDispatcher(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	pushService service.PushService,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		pushService: pushService,
	}
}

func (d *NotificationDispatcher) Dispatch(ctx context.Context, conversationID, senderID string, message *entity.Message) {
	conversation, err := d.chatRepo.GetByID(ctx, conversationID)
	if err != nil {
		logger.Error("Push dispatch: conversation %s lookup failed: %v", conversationID, err)
		return
	}

	sender, err := d.userRepo.GetByID(ctx, senderID)
	if err != nil {
		logger.Warn("Push dispatch: sender %s lookup failed: %v", senderID, err)
		sender = nil
	}

	push := service.PushMessage{
		Title: sender.DisplayName(),
		Body:  PushBody(message),
		Data: map[string]string{
			"conversationId": conversationID,
			"messageType":    message.Kind(),
			"senderId":       senderID,
		},
	}

	for _, participantID := range conversation.Participants {
		if participantID == senderID {
			continue
		}

		recipient, err := d.userRepo.GetByID(ctx, participantID)
		if err != nil || recipient.DeviceToken == "" {
			metrics.PushTotal.WithLabelValues("no_token").Inc()
			continue
		}

		push.To = recipient.DeviceToken
		if err := d.pushService.Send(ctx, push); err != nil {
			metrics.PushTotal.WithLabelValues("failed").Inc()
			logger.Error("Push dispatch to %s failed: %v", participantID, err)
			continue
		}
		metrics.PushTotal.WithLabelValues("sent").Inc()
	}
}

// PushBody is the notification text for a message. Media bodies carry a
// kind icon in front of the conversation preview.
func PushBody(message *entity.Message) string {
	switch message.Kind() {
	case entity.MediaImage:
		return "📷 " + message.Preview()
	case entity.MediaVideo:
		return "🎥 " + message.Preview()
	default:
		return message.Text
	}
}
