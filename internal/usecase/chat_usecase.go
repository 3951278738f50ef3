package usecase

import (
	"context"
	"strings"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/internal/infrastructure/ratelimit"
	ws "echosocial/internal/infrastructure/websocket"
	"echosocial/pkg/errors"
	"echosocial/pkg/logger"
	"echosocial/pkg/metrics"
)

const ActionSendMessage = "send_message"

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	notifier    MessageNotifier
	rateLimiter *ratelimit.RateLimiter
	wsManager   *ws.Manager
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	notifier MessageNotifier,
	rateLimiter *ratelimit.RateLimiter,
	wsManager *ws.Manager,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		rateLimiter: rateLimiter,
		wsManager:   wsManager,
	}
}

type MediaInput struct {
	URL     string
	Kind    string
	Caption string
}

type ConversationResponse struct {
	*entity.Conversation
	OtherUser *entity.UserSummary `json:"other_user,omitempty"`
}

// ResolveOrCreate returns the conversation between the two users, creating
// it on first contact. Two callers racing on first contact can both create
// one.
func (uc *ChatUseCase) ResolveOrCreate(ctx context.Context, userID, otherID string) (*entity.Conversation, error) {
	if otherID == "" {
		return nil, errors.BadRequest("participant_id is required", nil)
	}
	if userID == otherID {
		logger.Warn("ResolveOrCreate: user %s attempted to open a conversation with themselves", userID)
		return nil, errors.BadRequest("You cannot start a conversation with yourself", nil)
	}

	if _, err := uc.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}

	participants := entity.CanonicalPair(userID, otherID)
	existing, err := uc.chatRepo.FindByParticipants(ctx, participants)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	conversation := &entity.Conversation{
		Participants: participants,
		LastMessage:  "",
	}
	if err := uc.chatRepo.Create(ctx, conversation); err != nil {
		return nil, err
	}

	metrics.ConversationsCreated.Inc()
	logger.Info("Conversation %s created for %v", conversation.ID, participants)
	return conversation, nil
}

// ListForUser returns every conversation of userID, most recently updated
// first.
func (uc *ChatUseCase) ListForUser(ctx context.Context, userID string) ([]*ConversationResponse, error) {
	conversations, err := uc.chatRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		responses = append(responses, uc.withOtherUser(ctx, conversation, userID))
	}
	return responses, nil
}

func (uc *ChatUseCase) Get(ctx context.Context, userID, conversationID string) (*ConversationResponse, error) {
	conversation, err := uc.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	return uc.withOtherUser(ctx, conversation, userID), nil
}

func (uc *ChatUseCase) withOtherUser(ctx context.Context, conversation *entity.Conversation, userID string) *ConversationResponse {
	response := &ConversationResponse{Conversation: conversation}

	other, err := uc.userRepo.GetByID(ctx, conversation.OtherParticipant(userID))
	if err != nil {
		logger.Warn("Conversation %s: other participant lookup failed: %v", conversation.ID, err)
		return response
	}
	response.OtherUser = other.Summary()
	return response
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, conversationID string) ([]*entity.Message, error) {
	if _, err := uc.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	return uc.chatRepo.ListMessages(ctx, conversationID)
}

func (uc *ChatUseCase) SendText(ctx context.Context, userID, conversationID, text string) (*entity.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.BadRequest("Message text is required", nil)
	}

	return uc.send(ctx, userID, conversationID, &entity.Message{
		SenderID: userID,
		Text:     text,
	})
}

// SendMedia sends an image or video. A caption alone is not a message.
func (uc *ChatUseCase) SendMedia(ctx context.Context, userID, conversationID string, input MediaInput) (*entity.Message, error) {
	if strings.TrimSpace(input.URL) == "" {
		return nil, errors.BadRequest("A media reference is required", nil)
	}
	if !entity.IsMediaKind(input.Kind) {
		return nil, errors.BadRequest("Media type must be image or video", nil)
	}

	return uc.send(ctx, userID, conversationID, &entity.Message{
		SenderID:  userID,
		MediaURL:  strings.TrimSpace(input.URL),
		MediaType: input.Kind,
		Caption:   strings.TrimSpace(input.Caption),
	})
}

func (uc *ChatUseCase) send(ctx context.Context, userID, conversationID string, message *entity.Message) (*entity.Message, error) {
	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(userID, ActionSendMessage); !allowed {
			logger.Warn("Send rate limited: user %s must wait %v", userID, wait)
			return nil, errors.TooManyRequests("You are sending messages too quickly", wait)
		}
	}

	conversation, err := uc.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	if err := uc.chatRepo.CreateMessage(ctx, conversationID, message); err != nil {
		return nil, err
	}
	if err := uc.chatRepo.UpdateLastMessage(ctx, conversationID, message.Preview()); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(message.Kind()).Inc()
	uc.broadcastConversationUpdate(conversation, userID, message)

	if uc.notifier != nil {
		go uc.notifier.Dispatch(context.WithoutCancel(ctx), conversationID, userID, message)
	}
	return message, nil
}

// broadcastConversationUpdate tells the other participants' open live
// connections that the conversation has a new last message, so views bound
// to other conversations can refresh their list.
func (uc *ChatUseCase) broadcastConversationUpdate(conversation *entity.Conversation, senderID string, message *entity.Message) {
	if uc.wsManager == nil {
		return
	}

	frame := ws.EncodeFrame(ws.FrameConversationUpdate, ws.ConversationUpdateData{
		ConversationID: conversation.ID,
		LastMessage:    message.Preview(),
		SenderID:       senderID,
		MessageType:    message.Kind(),
	})
	for _, participantID := range conversation.Participants {
		if participantID != senderID {
			uc.wsManager.SendToUser(participantID, frame)
		}
	}
}

// DeleteMessage hard-deletes a message. Only its sender may delete it and
// the caller must confirm.
func (uc *ChatUseCase) DeleteMessage(ctx context.Context, userID, conversationID, messageID string, confirmed bool) error {
	if !confirmed {
		return errors.BadRequest("Deleting a message must be confirmed", nil)
	}
	if _, err := uc.participantConversation(ctx, conversationID, userID); err != nil {
		return err
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, conversationID, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != userID {
		return errors.Forbidden("You can only delete your own messages", nil)
	}

	return uc.chatRepo.DeleteMessage(ctx, conversationID, messageID)
}

// ToggleReaction sets the caller's reaction to emoji, or clears it when it
// already is emoji. It returns the caller's reaction after the call.
func (uc *ChatUseCase) ToggleReaction(ctx context.Context, userID, conversationID, messageID, emoji string) (string, error) {
	if !entity.IsPaletteReaction(emoji) {
		return "", errors.BadRequest("Unsupported reaction", nil)
	}
	if _, err := uc.participantConversation(ctx, conversationID, userID); err != nil {
		return "", err
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, conversationID, messageID)
	if err != nil {
		return "", err
	}
	return uc.applyReaction(ctx, userID, conversationID, message, emoji)
}

func (uc *ChatUseCase) applyReaction(ctx context.Context, userID, conversationID string, message *entity.Message, emoji string) (string, error) {
	if message.ReactionOf(userID) == emoji {
		if err := uc.chatRepo.ClearReaction(ctx, conversationID, message.ID, userID); err != nil {
			return "", err
		}
		return "", nil
	}

	if err := uc.chatRepo.SetReaction(ctx, conversationID, message.ID, userID, emoji); err != nil {
		return "", err
	}
	return emoji, nil
}

func (uc *ChatUseCase) SetTyping(ctx context.Context, userID, conversationID string, typing bool) error {
	if _, err := uc.participantConversation(ctx, conversationID, userID); err != nil {
		return err
	}
	return uc.chatRepo.SetTyping(ctx, conversationID, userID, typing)
}

// MarkRead moves the caller's read marker to the server's now.
func (uc *ChatUseCase) MarkRead(ctx context.Context, userID, conversationID string) error {
	if _, err := uc.participantConversation(ctx, conversationID, userID); err != nil {
		return err
	}
	return uc.chatRepo.MarkRead(ctx, conversationID, userID)
}

func (uc *ChatUseCase) participantConversation(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	conversation, err := uc.chatRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}
	return conversation, nil
}
