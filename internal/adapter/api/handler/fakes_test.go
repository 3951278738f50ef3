package handler

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/pkg/errors"
)

// memChatRepo is an in-memory conversation store with live watchers.
type memChatRepo struct {
	mu            sync.Mutex
	seq           int
	clock         time.Time
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	msgWatchers   map[string]map[int]func([]*entity.Message)
	convWatchers  map[string]map[int]func(*entity.Conversation)
}

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{
		clock:         time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
		msgWatchers:   make(map[string]map[int]func([]*entity.Message)),
		convWatchers:  make(map[string]map[int]func(*entity.Conversation)),
	}
}

func (r *memChatRepo) next(prefix string) string {
	r.seq++
	return prefix + "-" + strconv.Itoa(r.seq)
}

func (r *memChatRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Millisecond)
	return r.clock
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.Typing = make(map[string]bool)
	for k, v := range c.Typing {
		out.Typing[k] = v
	}
	out.ReadBy = make(map[string]time.Time)
	for k, v := range c.ReadBy {
		out.ReadBy[k] = v
	}
	return &out
}

func cloneMessage(m *entity.Message) *entity.Message {
	out := *m
	out.Reactions = make(map[string]string)
	for k, v := range m.Reactions {
		out.Reactions[k] = v
	}
	return &out
}

func (r *memChatRepo) publishMessages(id string) {
	r.mu.Lock()
	snapshot := make([]*entity.Message, 0, len(r.messages[id]))
	for _, m := range r.messages[id] {
		snapshot = append(snapshot, cloneMessage(m))
	}
	var watchers []func([]*entity.Message)
	for _, fn := range r.msgWatchers[id] {
		watchers = append(watchers, fn)
	}
	r.mu.Unlock()

	for _, fn := range watchers {
		fn(snapshot)
	}
}

func (r *memChatRepo) publishConversation(id string) {
	r.mu.Lock()
	c, ok := r.conversations[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	snapshot := cloneConversation(c)
	var watchers []func(*entity.Conversation)
	for _, fn := range r.convWatchers[id] {
		watchers = append(watchers, fn)
	}
	r.mu.Unlock()

	for _, fn := range watchers {
		fn(cloneConversation(snapshot))
	}
}

func (r *memChatRepo) FindByParticipants(ctx context.Context, participants []string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if strings.Join(c.Participants, ",") == strings.Join(participants, ",") {
			return cloneConversation(c), nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *memChatRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation.ID = r.next("conv")
	conversation.CreatedAt = r.tick()
	conversation.UpdatedAt = conversation.CreatedAt
	r.conversations[conversation.ID] = cloneConversation(conversation)
	return nil
}

func (r *memChatRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(c), nil
}

func (r *memChatRepo) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			out = append(out, cloneConversation(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *memChatRepo) mutateConversation(id string, fn func(c *entity.Conversation)) error {
	r.mu.Lock()
	c, ok := r.conversations[id]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("Conversation", nil)
	}
	fn(c)
	r.mu.Unlock()

	r.publishConversation(id)
	return nil
}

func (r *memChatRepo) UpdateLastMessage(ctx context.Context, id, preview string) error {
	return r.mutateConversation(id, func(c *entity.Conversation) {
		c.LastMessage = preview
		c.UpdatedAt = r.tick()
	})
}

func (r *memChatRepo) SetTyping(ctx context.Context, id, userID string, typing bool) error {
	return r.mutateConversation(id, func(c *entity.Conversation) {
		if c.Typing == nil {
			c.Typing = make(map[string]bool)
		}
		c.Typing[userID] = typing
	})
}

func (r *memChatRepo) MarkRead(ctx context.Context, id, userID string) error {
	return r.mutateConversation(id, func(c *entity.Conversation) {
		if c.ReadBy == nil {
			c.ReadBy = make(map[string]time.Time)
		}
		c.ReadBy[userID] = r.tick()
	})
}

func (r *memChatRepo) CreateMessage(ctx context.Context, id string, message *entity.Message) error {
	r.mu.Lock()
	message.ID = r.next("msg")
	message.CreatedAt = r.tick()
	r.messages[id] = append(r.messages[id], cloneMessage(message))
	r.mu.Unlock()

	r.publishMessages(id)
	return nil
}

func (r *memChatRepo) GetMessageByID(ctx context.Context, id, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages[id] {
		if m.ID == messageID {
			return cloneMessage(m), nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *memChatRepo) ListMessages(ctx context.Context, id string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Message, 0, len(r.messages[id]))
	for _, m := range r.messages[id] {
		out = append(out, cloneMessage(m))
	}
	return out, nil
}

func (r *memChatRepo) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages[id])
}

func (r *memChatRepo) DeleteMessage(ctx context.Context, id, messageID string) error {
	r.mu.Lock()
	kept := r.messages[id][:0]
	for _, m := range r.messages[id] {
		if m.ID != messageID {
			kept = append(kept, m)
		}
	}
	r.messages[id] = kept
	r.mu.Unlock()

	r.publishMessages(id)
	return nil
}

func (r *memChatRepo) react(id, messageID string, fn func(m *entity.Message)) error {
	r.mu.Lock()
	var found bool
	for _, m := range r.messages[id] {
		if m.ID == messageID {
			if m.Reactions == nil {
				m.Reactions = make(map[string]string)
			}
			fn(m)
			found = true
		}
	}
	r.mu.Unlock()

	if !found {
		return errors.NotFound("Message", nil)
	}
	r.publishMessages(id)
	return nil
}

func (r *memChatRepo) SetReaction(ctx context.Context, id, messageID, userID, emoji string) error {
	return r.react(id, messageID, func(m *entity.Message) { m.Reactions[userID] = emoji })
}

func (r *memChatRepo) ClearReaction(ctx context.Context, id, messageID, userID string) error {
	return r.react(id, messageID, func(m *entity.Message) { delete(m.Reactions, userID) })
}

func (r *memChatRepo) WatchMessages(ctx context.Context, id string, fn func([]*entity.Message)) (repository.Unsubscribe, error) {
	r.mu.Lock()
	if r.msgWatchers[id] == nil {
		r.msgWatchers[id] = make(map[int]func([]*entity.Message))
	}
	r.seq++
	key := r.seq
	r.msgWatchers[id][key] = fn
	r.mu.Unlock()

	r.publishMessages(id)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.msgWatchers[id], key)
			r.mu.Unlock()
		})
	}, nil
}

func (r *memChatRepo) WatchConversation(ctx context.Context, id string, fn func(*entity.Conversation)) (repository.Unsubscribe, error) {
	r.mu.Lock()
	if r.convWatchers[id] == nil {
		r.convWatchers[id] = make(map[int]func(*entity.Conversation))
	}
	r.seq++
	key := r.seq
	r.convWatchers[id][key] = fn
	r.mu.Unlock()

	r.publishConversation(id)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.convWatchers[id], key)
			r.mu.Unlock()
		})
	}, nil
}

// memUserRepo serves a fixed set of users.
type memUserRepo struct {
	users map[string]*entity.User
}

func newMemUserRepo(ids ...string) *memUserRepo {
	r := &memUserRepo{users: make(map[string]*entity.User)}
	for _, id := range ids {
		r.users[id] = &entity.User{ID: id, Username: id, FirstName: strings.ToUpper(id[:1]) + id[1:]}
	}
	return r
}

func (r *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *memUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Search(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	return nil, nil
}

func (r *memUserRepo) ToggleFollow(ctx context.Context, followerID, targetID string) (bool, error) {
	return false, nil
}

func (r *memUserRepo) SetDeviceToken(ctx context.Context, userID, token string) error {
	return nil
}
