package usecase

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/internal/domain/service"
	"echosocial/pkg/errors"
)

// fakeChatRepo is an in-memory store that delivers live snapshots
// synchronously after every mutation, like a fast Firestore listener.
type fakeChatRepo struct {
	mu            sync.Mutex
	clock         time.Time
	seq           int
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	msgWatchers   map[string]map[int]func([]*entity.Message)
	convWatchers  map[string]map[int]func(*entity.Conversation)

	fail         map[string]error
	typingWrites []bool
	unsubscribed int
	creates      int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		clock:         time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
		msgWatchers:   make(map[string]map[int]func([]*entity.Message)),
		convWatchers:  make(map[string]map[int]func(*entity.Conversation)),
		fail:          make(map[string]error),
	}
}

// tick stands in for the server clock; every call is strictly later.
func (r *fakeChatRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Millisecond)
	return r.clock
}

func (r *fakeChatRepo) nextID(prefix string) string {
	r.seq++
	return prefix + "-" + strconv.Itoa(r.seq)
}

func (r *fakeChatRepo) failWith(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[op] = err
}

func (r *fakeChatRepo) failed(op string) error {
	return r.fail[op]
}

func copyConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.Typing = make(map[string]bool, len(c.Typing))
	for k, v := range c.Typing {
		out.Typing[k] = v
	}
	out.ReadBy = make(map[string]time.Time, len(c.ReadBy))
	for k, v := range c.ReadBy {
		out.ReadBy[k] = v
	}
	return &out
}

func copyMessage(m *entity.Message) *entity.Message {
	out := *m
	out.Reactions = make(map[string]string, len(m.Reactions))
	for k, v := range m.Reactions {
		out.Reactions[k] = v
	}
	return &out
}

func (r *fakeChatRepo) messageSnapshot(conversationID string) []*entity.Message {
	out := make([]*entity.Message, 0, len(r.messages[conversationID]))
	for _, m := range r.messages[conversationID] {
		out = append(out, copyMessage(m))
	}
	return out
}

// notifyMessages must be called without r.mu held.
func (r *fakeChatRepo) notifyMessages(conversationID string) {
	r.mu.Lock()
	snapshot := r.messageSnapshot(conversationID)
	watchers := make([]func([]*entity.Message), 0, len(r.msgWatchers[conversationID]))
	for _, fn := range r.msgWatchers[conversationID] {
		watchers = append(watchers, fn)
	}
	r.mu.Unlock()

	for _, fn := range watchers {
		fn(snapshot)
	}
}

func (r *fakeChatRepo) notifyConversation(conversationID string) {
	r.mu.Lock()
	c, ok := r.conversations[conversationID]
	if !ok {
		r.mu.Unlock()
		return
	}
	watchers := make([]func(*entity.Conversation), 0, len(r.convWatchers[conversationID]))
	for _, fn := range r.convWatchers[conversationID] {
		watchers = append(watchers, fn)
	}
	snapshot := copyConversation(c)
	r.mu.Unlock()

	for _, fn := range watchers {
		fn(copyConversation(snapshot))
	}
}

func (r *fakeChatRepo) FindByParticipants(ctx context.Context, participants []string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.conversations {
		if len(c.Participants) == 2 && c.Participants[0] == participants[0] && c.Participants[1] == participants[1] {
			return copyConversation(c), nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *fakeChatRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failed("Create"); err != nil {
		return err
	}
	r.creates++
	conversation.ID = r.nextID("conv")
	now := r.tick()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	r.conversations[conversation.ID] = copyConversation(conversation)
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return copyConversation(c), nil
}

func (r *fakeChatRepo) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			out = append(out, copyConversation(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeChatRepo) UpdateLastMessage(ctx context.Context, conversationID, preview string) error {
	r.mu.Lock()
	c, ok := r.conversations[conversationID]
	if ok {
		c.LastMessage = preview
		c.UpdatedAt = r.tick()
	}
	r.mu.Unlock()

	r.notifyConversation(conversationID)
	return nil
}

func (r *fakeChatRepo) SetTyping(ctx context.Context, conversationID, userID string, typing bool) error {
	r.mu.Lock()
	if err := r.failed("SetTyping"); err != nil {
		r.mu.Unlock()
		return err
	}
	c, ok := r.conversations[conversationID]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("Conversation", nil)
	}
	if c.Typing == nil {
		c.Typing = make(map[string]bool)
	}
	c.Typing[userID] = typing
	r.typingWrites = append(r.typingWrites, typing)
	r.mu.Unlock()

	r.notifyConversation(conversationID)
	return nil
}

func (r *fakeChatRepo) MarkRead(ctx context.Context, conversationID, userID string) error {
	r.mu.Lock()
	if err := r.failed("MarkRead"); err != nil {
		r.mu.Unlock()
		return err
	}
	c, ok := r.conversations[conversationID]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("Conversation", nil)
	}
	if c.ReadBy == nil {
		c.ReadBy = make(map[string]time.Time)
	}
	c.ReadBy[userID] = r.tick()
	r.mu.Unlock()

	r.notifyConversation(conversationID)
	return nil
}

func (r *fakeChatRepo) CreateMessage(ctx context.Context, conversationID string, message *entity.Message) error {
	r.mu.Lock()
	if err := r.failed("CreateMessage"); err != nil {
		r.mu.Unlock()
		return err
	}
	message.ID = r.nextID("msg")
	message.CreatedAt = r.tick()
	r.messages[conversationID] = append(r.messages[conversationID], copyMessage(message))
	r.mu.Unlock()

	r.notifyMessages(conversationID)
	return nil
}

func (r *fakeChatRepo) findMessage(conversationID, messageID string) (*entity.Message, int) {
	for i, m := range r.messages[conversationID] {
		if m.ID == messageID {
			return m, i
		}
	}
	return nil, -1
}

func (r *fakeChatRepo) GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, _ := r.findMessage(conversationID, messageID)
	if m == nil {
		return nil, errors.NotFound("Message", nil)
	}
	return copyMessage(m), nil
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messageSnapshot(conversationID), nil
}

func (r *fakeChatRepo) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	r.mu.Lock()
	_, i := r.findMessage(conversationID, messageID)
	if i >= 0 {
		msgs := r.messages[conversationID]
		r.messages[conversationID] = append(msgs[:i:i], msgs[i+1:]...)
	}
	r.mu.Unlock()

	r.notifyMessages(conversationID)
	return nil
}

func (r *fakeChatRepo) SetReaction(ctx context.Context, conversationID, messageID, userID, emoji string) error {
	return r.updateReaction(conversationID, messageID, func(m *entity.Message) {
		if m.Reactions == nil {
			m.Reactions = make(map[string]string)
		}
		m.Reactions[userID] = emoji
	})
}

func (r *fakeChatRepo) ClearReaction(ctx context.Context, conversationID, messageID, userID string) error {
	return r.updateReaction(conversationID, messageID, func(m *entity.Message) {
		delete(m.Reactions, userID)
	})
}

func (r *fakeChatRepo) updateReaction(conversationID, messageID string, apply func(*entity.Message)) error {
	r.mu.Lock()
	m, _ := r.findMessage(conversationID, messageID)
	if m == nil {
		r.mu.Unlock()
		return errors.NotFound("Message", nil)
	}
	apply(m)
	r.mu.Unlock()

	r.notifyMessages(conversationID)
	return nil
}

func (r *fakeChatRepo) WatchMessages(ctx context.Context, conversationID string, fn func([]*entity.Message)) (repository.Unsubscribe, error) {
	r.mu.Lock()
	if err := r.failed("WatchMessages"); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	id := r.seq
	r.seq++
	if r.msgWatchers[conversationID] == nil {
		r.msgWatchers[conversationID] = make(map[int]func([]*entity.Message))
	}
	r.msgWatchers[conversationID][id] = fn
	r.mu.Unlock()

	r.notifyMessages(conversationID)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.msgWatchers[conversationID], id)
			r.unsubscribed++
		})
	}, nil
}

func (r *fakeChatRepo) WatchConversation(ctx context.Context, conversationID string, fn func(*entity.Conversation)) (repository.Unsubscribe, error) {
	r.mu.Lock()
	if err := r.failed("WatchConversation"); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	id := r.seq
	r.seq++
	if r.convWatchers[conversationID] == nil {
		r.convWatchers[conversationID] = make(map[int]func(*entity.Conversation))
	}
	r.convWatchers[conversationID][id] = fn
	r.mu.Unlock()

	r.notifyConversation(conversationID)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.convWatchers[conversationID], id)
			r.unsubscribed++
		})
	}, nil
}

func (r *fakeChatRepo) watcherCount(conversationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgWatchers[conversationID]) + len(r.convWatchers[conversationID])
}

func (r *fakeChatRepo) lastTypingWrite() (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.typingWrites) == 0 {
		return false, 0
	}
	return r.typingWrites[len(r.typingWrites)-1], len(r.typingWrites)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return errors.Conflict("User already exists")
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Search(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*entity.User
	for _, id := range ids {
		u := r.users[id]
		if strings.HasPrefix(u.Username, query) || strings.HasPrefix(u.FirstName, query) {
			copied := *u
			out = append(out, &copied)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ToggleFollow(ctx context.Context, followerID, targetID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	follower, ok := r.users[followerID]
	target, ok2 := r.users[targetID]
	if !ok || !ok2 {
		return false, errors.NotFound("User", nil)
	}

	if follower.IsFollowing(targetID) {
		follower.Following = remove(follower.Following, targetID)
		target.Followers = remove(target.Followers, followerID)
		return false, nil
	}
	follower.Following = append(follower.Following, targetID)
	target.Followers = append(target.Followers, followerID)
	return true, nil
}

func (r *fakeUserRepo) SetDeviceToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	u.DeviceToken = token
	return nil
}

func remove(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type fakePostRepo struct {
	mu       sync.Mutex
	clock    time.Time
	seq      int
	posts    map[string]*entity.Post
	comments *fakeCommentRepo
}

func newFakePostRepo() *fakePostRepo {
	r := &fakePostRepo{
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		posts: make(map[string]*entity.Post),
	}
	r.comments = &fakeCommentRepo{posts: r, comments: make(map[string]*entity.Comment)}
	return r
}

func (r *fakePostRepo) Create(ctx context.Context, post *entity.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.clock = r.clock.Add(time.Second)
	post.ID = "post-" + strconv.Itoa(r.seq)
	post.CreatedAt = r.clock
	post.UpdatedAt = r.clock
	copied := *post
	r.posts[post.ID] = &copied
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, errors.NotFound("Post", nil)
	}
	copied := *p
	return &copied, nil
}

func (r *fakePostRepo) sorted(filter func(*entity.Post) bool) []*entity.Post {
	var out []*entity.Post
	for _, p := range r.posts {
		if filter(p) {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakePostRepo) List(ctx context.Context, limit, offset int) ([]*entity.Post, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(*entity.Post) bool { return true })
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *fakePostRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(p *entity.Post) bool { return p.UserID == userID }), nil
}

func (r *fakePostRepo) ToggleLike(ctx context.Context, postID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return false, errors.NotFound("Post", nil)
	}
	if p.LikedBy(userID) {
		p.Likes = remove(p.Likes, userID)
		return false, nil
	}
	p.Likes = append(p.Likes, userID)
	return true, nil
}

func (r *fakePostRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.posts, id)
	r.mu.Unlock()

	r.comments.mu.Lock()
	defer r.comments.mu.Unlock()
	for cid, c := range r.comments.comments {
		if c.PostID == id {
			delete(r.comments.comments, cid)
		}
	}
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	seq      int
	posts    *fakePostRepo
	comments map[string]*entity.Comment
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *entity.Comment) error {
	r.posts.mu.Lock()
	post, ok := r.posts.posts[comment.PostID]
	if !ok {
		r.posts.mu.Unlock()
		return errors.NotFound("Post", nil)
	}

	r.mu.Lock()
	r.seq++
	comment.ID = "comment-" + strconv.Itoa(r.seq)
	comment.CreatedAt = time.Now()
	copied := *comment
	r.comments[comment.ID] = &copied
	r.mu.Unlock()

	post.Comments = append(post.Comments, comment.ID)
	r.posts.mu.Unlock()
	return nil
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, errors.NotFound("Comment", nil)
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCommentRepo) ListByPost(ctx context.Context, postID string) ([]*entity.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Comment
	for _, c := range r.comments {
		if c.PostID == postID {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCommentRepo) Delete(ctx context.Context, comment *entity.Comment) error {
	r.mu.Lock()
	delete(r.comments, comment.ID)
	r.mu.Unlock()

	r.posts.mu.Lock()
	defer r.posts.mu.Unlock()
	if p, ok := r.posts.posts[comment.PostID]; ok {
		p.Comments = remove(p.Comments, comment.ID)
	}
	return nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	seq           int
	notifications []*entity.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	notification.ID = "notif-" + strconv.Itoa(r.seq)
	notification.CreatedAt = time.Now()
	copied := *notification
	r.notifications = append(r.notifications, &copied)
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Notification", nil)
}

func (r *fakeNotificationRepo) ListForUser(ctx context.Context, userID string) ([]*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].To == userID {
			copied := *r.notifications[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notifications {
		if n.ID == id {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeNotificationRepo) all() []*entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.Notification(nil), r.notifications...)
}

type fakePush struct {
	mu   sync.Mutex
	sent []service.PushMessage
	err  error
}

func (p *fakePush) Send(ctx context.Context, msg service.PushMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func (p *fakePush) messages() []service.PushMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]service.PushMessage(nil), p.sent...)
}

type fakeIdentity struct {
	identities map[string]*entity.Identity
}

func (f *fakeIdentity) GetIdentity(ctx context.Context, uid string) (*entity.Identity, error) {
	identity, ok := f.identities[uid]
	if !ok {
		return nil, errors.NotFound("Identity", nil)
	}
	return identity, nil
}

type fakeFiles struct {
	mu       sync.Mutex
	uploads  []string
	deleted  []string
	uploadFn func(folder string) (string, error)
}

func (f *fakeFiles) UploadFile(ctx context.Context, file io.Reader, contentType, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	if f.uploadFn != nil {
		return f.uploadFn(folder)
	}
	url := "https://storage.googleapis.com/media/" + folder + "/file-" + strconv.Itoa(len(f.uploads)+1)
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeFiles) DeleteFile(ctx context.Context, fileURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileURL)
	return nil
}

// eventRecorder collects session events.
type eventRecorder struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (r *eventRecorder) emit(e SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) last(kind string) (SessionEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == kind {
			return r.events[i], true
		}
	}
	return SessionEvent{}, false
}

func (r *eventRecorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == kind {
			n++
		}
	}
	return n
}

func testUsers() []*entity.User {
	return []*entity.User{
		{ID: "alice", Username: "alice", FirstName: "Alice", DeviceToken: "ExponentPushToken[alice]"},
		{ID: "bob", Username: "bob", FirstName: "Bob", DeviceToken: "ExponentPushToken[bob]"},
		{ID: "carol", Username: "carol"},
	}
}
