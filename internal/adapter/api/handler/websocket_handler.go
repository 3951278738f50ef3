package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"echosocial/internal/domain/entity"
	ws "echosocial/internal/infrastructure/websocket"
	"echosocial/internal/usecase"
	"echosocial/pkg/errors"
	"echosocial/pkg/logger"
	"echosocial/pkg/response"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	chatUseCase    *usecase.ChatUseCase
	typingIdle     time.Duration
	allowedOrigins map[string]bool
	upgrader       gorillaws.Upgrader
}

var webSocketHandler *WebSocketHandler

func NewWebSocketHandler(wsManager *ws.Manager, chatUseCase *usecase.ChatUseCase, typingIdle time.Duration, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		wsManager:      wsManager,
		chatUseCase:    chatUseCase,
		typingIdle:     typingIdle,
		allowedOrigins: make(map[string]bool, len(allowedOrigins)),
	}
	for _, origin := range allowedOrigins {
		h.allowedOrigins[origin] = true
	}

	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func SetupWebSocketHandler(wsManager *ws.Manager, chatUseCase *usecase.ChatUseCase, typingIdle time.Duration, allowedOrigins []string) {
	webSocketHandler = NewWebSocketHandler(wsManager, chatUseCase, typingIdle, allowedOrigins)
}

func GetWebSocketHandler() *WebSocketHandler {
	return webSocketHandler
}

// Native clients send no Origin header.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || h.allowedOrigins[origin]
}

// HandleLive upgrades to a websocket and runs a chat session on the
// conversation for as long as the connection stays open.
func (h *WebSocketHandler) HandleLive(c echo.Context) error {
	userID, ok := c.Get("uid").(string)
	if !ok || userID == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}
	conversationID := c.Param("id")

	// Reject outsiders with a plain HTTP status before upgrading.
	if _, err := h.chatUseCase.Get(c.Request().Context(), userID, conversationID); err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the handshake error.
		logger.Warn("Websocket upgrade failed for %s: %v", userID, err)
		return nil
	}

	client := ws.NewClient(uuid.NewString(), userID, conversationID, conn)

	session, err := h.chatUseCase.OpenSession(c.Request().Context(), userID, conversationID, h.typingIdle, func(event usecase.SessionEvent) {
		if event.Type == usecase.EventMessages {
			client.QueueSnapshot(sessionFrame(event))
			return
		}
		client.Queue(sessionFrame(event))
	})
	if err != nil {
		logger.Warn("Failed to open session on %s for %s: %v", conversationID, userID, err)
		conn.WriteMessage(gorillaws.TextMessage, ws.ErrorFrame("Unable to open conversation"))
		conn.Close()
		return nil
	}

	client.OnFrame = func(frame ws.Frame) {
		handleSessionFrame(client, session, frame)
	}
	client.OnClose = func() {
		// Close writes to the store, keep it off the manager loop.
		go session.Close()
	}

	if !h.wsManager.Add(client) {
		conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump(h.wsManager)

	return nil
}

// sessionFrame renders a session event as an outbound frame.
func sessionFrame(event usecase.SessionEvent) []byte {
	switch event.Type {
	case usecase.EventMessages:
		messages := event.Messages
		if messages == nil {
			messages = []*entity.Message{}
		}
		return ws.EncodeFrame(ws.FrameMessages, messages)

	case usecase.EventTyping:
		return ws.EncodeFrame(ws.FrameTyping, map[string]bool{
			"typing": event.Typing,
		})

	case usecase.EventSeen:
		return ws.EncodeFrame(ws.FrameSeen, map[string]interface{}{
			"message_id": event.MessageID,
			"seen":       event.Seen,
		})

	case usecase.EventAlert:
		return ws.EncodeFrame(ws.FrameAlert, map[string]string{
			"operation": event.Operation,
			"message":   event.Message,
		})

	default:
		return ws.ErrorFrame("Unknown event")
	}
}

// handleSessionFrame applies one inbound frame to the session. Failed
// operations come back to the client as alert frames through the session.
func handleSessionFrame(client *ws.Client, session *usecase.Session, frame ws.Frame) {
	switch frame.Type {
	case ws.FrameKeystroke:
		session.Keystroke()

	case ws.FrameSendText:
		var data ws.SendTextData
		if err := frame.Bind(&data); err != nil {
			client.Queue(ws.ErrorFrame("Invalid send_text payload"))
			return
		}
		session.SendText(data.Text)

	case ws.FrameSendMedia:
		var data ws.SendMediaData
		if err := frame.Bind(&data); err != nil {
			client.Queue(ws.ErrorFrame("Invalid send_media payload"))
			return
		}
		session.SendMedia(usecase.MediaInput{
			URL:     data.MediaURL,
			Kind:    data.MediaType,
			Caption: data.Caption,
		})

	case ws.FrameToggleReaction:
		var data ws.ReactionData
		if err := frame.Bind(&data); err != nil {
			client.Queue(ws.ErrorFrame("Invalid toggle_reaction payload"))
			return
		}
		session.ToggleReaction(data.MessageID, data.Emoji)

	case ws.FrameDeleteMessage:
		var data ws.DeleteData
		if err := frame.Bind(&data); err != nil {
			client.Queue(ws.ErrorFrame("Invalid delete_message payload"))
			return
		}
		session.Delete(data.MessageID, data.Confirm)

	case ws.FrameMarkRead:
		session.MarkRead()

	default:
		client.Queue(ws.ErrorFrame("Unknown message type"))
	}
}
