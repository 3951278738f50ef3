package handler

import (
	"github.com/labstack/echo/v4"

	"echosocial/internal/usecase"
	"echosocial/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createConversationRequest struct {
	ParticipantID string `json:"participant_id" validate:"required"`
}

// A message carries either text or a media reference with an optional
// caption.
type sendMessageRequest struct {
	Text      string `json:"text" validate:"max=4000"`
	MediaURL  string `json:"media_url" validate:"omitempty,url"`
	MediaType string `json:"media_type" validate:"omitempty,oneof=image video"`
	Caption   string `json:"caption" validate:"max=1000"`
}

type deleteMessageRequest struct {
	Confirm bool `json:"confirm"`
}

type reactionRequest struct {
	Emoji string `json:"emoji" validate:"required"`
}

type typingRequest struct {
	Typing bool `json:"typing"`
}

// CreateConversation returns the conversation between the caller and
// participant_id, creating it on first contact.
func (h *ChatHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	conversation, err := h.chatUseCase.ResolveOrCreate(c.Request().Context(), uid, req.ParticipantID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *ChatHandler) ListConversations(c echo.Context) error {
	uid := c.Get("uid").(string)

	conversations, err := h.chatUseCase.ListForUser(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

func (h *ChatHandler) GetConversation(c echo.Context) error {
	uid := c.Get("uid").(string)

	conversation, err := h.chatUseCase.Get(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	uid := c.Get("uid").(string)

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)
	ctx := c.Request().Context()
	conversationID := c.Param("id")

	if req.MediaURL != "" || req.MediaType != "" {
		message, err := h.chatUseCase.SendMedia(ctx, uid, conversationID, usecase.MediaInput{
			URL:     req.MediaURL,
			Kind:    req.MediaType,
			Caption: req.Caption,
		})
		if err != nil {
			return response.Error(c, err)
		}
		return response.Created(c, message)
	}

	message, err := h.chatUseCase.SendText(ctx, uid, conversationID, req.Text)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) DeleteMessage(c echo.Context) error {
	var req deleteMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	err := h.chatUseCase.DeleteMessage(c.Request().Context(), uid, c.Param("id"), c.Param("messageId"), req.Confirm)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Message deleted successfully",
	})
}

func (h *ChatHandler) ToggleReaction(c echo.Context) error {
	var req reactionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	reaction, err := h.chatUseCase.ToggleReaction(c.Request().Context(), uid, c.Param("id"), c.Param("messageId"), req.Emoji)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"reaction": reaction,
	})
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	uid := c.Get("uid").(string)

	if err := h.chatUseCase.MarkRead(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Conversation marked as read",
	})
}

func (h *ChatHandler) SetTyping(c echo.Context) error {
	var req typingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	uid := c.Get("uid").(string)

	if err := h.chatUseCase.SetTyping(c.Request().Context(), uid, c.Param("id"), req.Typing); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]bool{
		"typing": req.Typing,
	})
}
