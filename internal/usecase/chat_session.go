package usecase

import (
	"context"
	"sync"
	"time"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/pkg/errors"
	"echosocial/pkg/logger"
)

const DefaultTypingIdle = 1500 * time.Millisecond

// Session event types.
const (
	EventMessages = "messages"
	EventTyping   = "typing"
	EventSeen     = "seen"
	EventAlert    = "alert"
)

// Operations named by alert events.
const (
	OpSend      = "send"
	OpSendMedia = "send_media"
	OpDelete    = "delete"
	OpReact     = "react"
	OpMarkRead  = "mark_read"
)

type SessionState int

const (
	SessionIdle SessionState = iota
	SessionSubscribed
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionSubscribed:
		return "subscribed"
	default:
		return "closed"
	}
}

// SessionEvent is a change in the derived state of a live session.
type SessionEvent struct {
	Type      string            `json:"type"`
	Messages  []*entity.Message `json:"messages,omitempty"`
	Typing    bool              `json:"typing,omitempty"`
	Seen      bool              `json:"seen,omitempty"`
	MessageID string            `json:"message_id,omitempty"`
	Operation string            `json:"operation,omitempty"`
	Message   string            `json:"message,omitempty"`
}

// Session is one user's live view of a conversation. It keeps the message
// list, the other participant's typing flag and the seen state of the
// user's latest message in sync with the store, and publishes the user's
// own typing flag with an idle timeout.
//
// emit is called with the session lock held, so it must not block or call
// back into the Session.
type Session struct {
	chat           *ChatUseCase
	repo           repository.ChatRepository
	conversationID string
	userID         string
	otherID        string
	typingIdle     time.Duration
	emit           func(SessionEvent)

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	state        SessionState
	messages     []*entity.Message
	conversation *entity.Conversation
	otherTyping  bool
	seenID       string
	seen         bool
	typingLocal  bool
	typingTimer  *time.Timer
	typingGen    uint64
	unsubscribes []repository.Unsubscribe

	closeOnce sync.Once
}

// OpenSession checks that userID belongs to the conversation and starts a
// live session on it. A zero typingIdle uses DefaultTypingIdle.
func (uc *ChatUseCase) OpenSession(ctx context.Context, userID, conversationID string, typingIdle time.Duration, emit func(SessionEvent)) (*Session, error) {
	conversation, err := uc.participantConversation(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	if typingIdle <= 0 {
		typingIdle = DefaultTypingIdle
	}
	if emit == nil {
		emit = func(SessionEvent) {}
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		chat:           uc,
		repo:           uc.chatRepo,
		conversationID: conversationID,
		userID:         userID,
		otherID:        conversation.OtherParticipant(userID),
		typingIdle:     typingIdle,
		emit:           emit,
		ctx:            sessionCtx,
		cancel:         cancel,
		conversation:   conversation,
	}

	if err := s.start(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) start() error {
	unsubMessages, err := s.repo.WatchMessages(s.ctx, s.conversationID, s.onMessages)
	if err != nil {
		return errors.Internal("Failed to subscribe to messages", err)
	}
	s.track(unsubMessages)

	unsubConversation, err := s.repo.WatchConversation(s.ctx, s.conversationID, s.onConversation)
	if err != nil {
		return errors.Internal("Failed to subscribe to conversation", err)
	}
	s.track(unsubConversation)

	s.mu.Lock()
	if s.state == SessionIdle {
		s.state = SessionSubscribed
	}
	s.mu.Unlock()

	// The read marker is written once per session, not per incoming message.
	s.MarkRead()
	return nil
}

func (s *Session) track(unsubscribe repository.Unsubscribe) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionClosed {
		unsubscribe()
		return
	}
	s.unsubscribes = append(s.unsubscribes, unsubscribe)
}

func (s *Session) onMessages(messages []*entity.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionClosed {
		return
	}
	s.messages = messages
	s.emit(SessionEvent{Type: EventMessages, Messages: messages})
	s.refreshSeenLocked()
}

func (s *Session) onConversation(conversation *entity.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == SessionClosed {
		return
	}
	s.conversation = conversation

	if typing := conversation.IsTyping(s.otherID); typing != s.otherTyping {
		s.otherTyping = typing
		s.emit(SessionEvent{Type: EventTyping, Typing: typing})
	}
	s.refreshSeenLocked()
}

// refreshSeenLocked recomputes whether the other participant has read the
// user's most recent message and emits when that changes.
func (s *Session) refreshSeenLocked() {
	var latest *entity.Message
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].SenderID == s.userID {
			latest = s.messages[i]
			break
		}
	}

	id, seen := "", false
	if latest != nil {
		id = latest.ID
		if s.conversation != nil {
			seen = latest.SeenBy(s.conversation.ReadAt(s.otherID))
		}
	}

	if id == s.seenID && seen == s.seen {
		return
	}
	s.seenID, s.seen = id, seen
	s.emit(SessionEvent{Type: EventSeen, MessageID: id, Seen: seen})
}

// Keystroke marks the user as typing and restarts the idle timer that
// clears the flag. The flag is written on every keystroke, so a false
// written elsewhere while the user types does not stick.
func (s *Session) Keystroke() {
	s.mu.Lock()
	if s.state == SessionClosed {
		s.mu.Unlock()
		return
	}

	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingGen++
	gen := s.typingGen
	s.typingTimer = time.AfterFunc(s.typingIdle, func() { s.typingExpired(gen) })

	s.typingLocal = true
	s.mu.Unlock()

	s.writeTyping(true)
}

func (s *Session) typingExpired(gen uint64) {
	s.mu.Lock()
	if s.state == SessionClosed || gen != s.typingGen || !s.typingLocal {
		s.mu.Unlock()
		return
	}
	s.typingLocal = false
	s.typingTimer = nil
	s.mu.Unlock()

	s.writeTyping(false)
}

// clearTyping drops the typing flag now and cancels any pending timer.
func (s *Session) clearTyping() {
	s.mu.Lock()
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.typingGen++
	s.typingLocal = false
	s.mu.Unlock()

	s.writeTyping(false)
}

func (s *Session) writeTyping(typing bool) {
	if err := s.repo.SetTyping(s.ctx, s.conversationID, s.userID, typing); err != nil {
		logger.Warn("Session %s/%s: typing update failed: %v", s.conversationID, s.userID, err)
	}
}

func (s *Session) SendText(text string) (*entity.Message, error) {
	message, err := s.chat.SendText(s.ctx, s.userID, s.conversationID, text)
	if err != nil {
		s.alert(OpSend, err)
		return nil, err
	}
	s.clearTyping()
	return message, nil
}

// SendMedia sends an image or video. On failure nothing is consumed and the
// caller may retry with the same input.
func (s *Session) SendMedia(input MediaInput) (*entity.Message, error) {
	message, err := s.chat.SendMedia(s.ctx, s.userID, s.conversationID, input)
	if err != nil {
		s.alert(OpSendMedia, err)
		return nil, err
	}
	s.clearTyping()
	return message, nil
}

// ToggleReaction decides set or clear from the session's current copy of
// the message.
func (s *Session) ToggleReaction(messageID, emoji string) (string, error) {
	if !entity.IsPaletteReaction(emoji) {
		err := errors.BadRequest("Unsupported reaction", nil)
		s.alert(OpReact, err)
		return "", err
	}

	message := s.message(messageID)
	if message == nil {
		err := errors.NotFound("Message", nil)
		s.alert(OpReact, err)
		return "", err
	}

	reaction, err := s.chat.applyReaction(s.ctx, s.userID, s.conversationID, message, emoji)
	if err != nil {
		s.alert(OpReact, err)
		return "", err
	}
	return reaction, nil
}

func (s *Session) Delete(messageID string, confirmed bool) error {
	if err := s.chat.DeleteMessage(s.ctx, s.userID, s.conversationID, messageID, confirmed); err != nil {
		s.alert(OpDelete, err)
		return err
	}
	return nil
}

func (s *Session) MarkRead() error {
	if err := s.repo.MarkRead(s.ctx, s.conversationID, s.userID); err != nil {
		s.alert(OpMarkRead, err)
		return err
	}
	return nil
}

func (s *Session) alert(operation string, err error) {
	logger.Warn("Session %s/%s: %s failed: %v", s.conversationID, s.userID, operation, err)

	message := "Something went wrong"
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionClosed {
		return
	}
	s.emit(SessionEvent{Type: EventAlert, Operation: operation, Message: message})
}

func (s *Session) message(messageID string) *entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if m.ID == messageID {
			return m
		}
	}
	return nil
}

// Close detaches every subscription exactly once and flushes a pending
// typing flag. Calling it again is a no-op.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = SessionClosed
		if s.typingTimer != nil {
			s.typingTimer.Stop()
			s.typingTimer = nil
		}
		s.typingGen++
		flush := s.typingLocal
		s.typingLocal = false
		unsubscribes := s.unsubscribes
		s.unsubscribes = nil
		s.mu.Unlock()

		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
		if flush {
			s.writeTyping(false)
		}
		s.cancel()
	})
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns the last message list received from the store.
func (s *Session) Messages() []*entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

func (s *Session) OtherTyping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otherTyping
}

// Seen reports the user's most recent message id and whether the other
// participant has read it.
func (s *Session) Seen() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seenID, s.seen
}

func (s *Session) TypingLocal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typingLocal
}
