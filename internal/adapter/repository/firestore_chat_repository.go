package repository

import (
	"context"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"echosocial/internal/domain/entity"
	"echosocial/internal/domain/repository"
	"echosocial/pkg/errors"
	"echosocial/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) conversations() *firestore.CollectionRef {
	return r.client.Collection("conversations")
}

func (r *firestoreChatRepository) messages(conversationID string) *firestore.CollectionRef {
	return r.conversations().Doc(conversationID).Collection("messages")
}

func (r *firestoreChatRepository) FindByParticipants(ctx context.Context, participants []string) (*entity.Conversation, error) {
	iter := r.conversations().Where("participants", "==", participants).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Conversation", nil)
		}
		return nil, errors.Internal("Failed to query conversation", err)
	}

	return conversationFromDoc(doc)
}

func (r *firestoreChatRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	ref := r.conversations().NewDoc()

	// createdAt and updatedAt are left zero so the server assigns them.
	wr, err := ref.Create(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to create conversation", err)
	}

	conversation.ID = ref.ID
	conversation.CreatedAt = wr.UpdateTime
	conversation.UpdatedAt = wr.UpdateTime
	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.conversations().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	return conversationFromDoc(doc)
}

func (r *firestoreChatRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	iter := r.conversations().
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	conversations := []*entity.Conversation{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while listing conversations for %s: %v", userID, err)
			return nil, errors.Internal("Failed to list conversations", err)
		}

		conversation, err := conversationFromDoc(doc)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conversation)
	}

	return conversations, nil
}

func (r *firestoreChatRepository) UpdateLastMessage(ctx context.Context, conversationID, preview string) error {
	_, err := r.conversations().Doc(conversationID).Set(ctx, map[string]interface{}{
		"lastMessage": preview,
		"updatedAt":   firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to update last message", err)
	}
	return nil
}

func (r *firestoreChatRepository) SetTyping(ctx context.Context, conversationID, userID string, typing bool) error {
	return r.updateConversation(ctx, conversationID, "Failed to update typing state", firestore.Update{
		FieldPath: firestore.FieldPath{"typing", userID},
		Value:     typing,
	})
}

func (r *firestoreChatRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	return r.updateConversation(ctx, conversationID, "Failed to update read marker", firestore.Update{
		FieldPath: firestore.FieldPath{"readBy", userID},
		Value:     firestore.ServerTimestamp,
	})
}

func (r *firestoreChatRepository) updateConversation(ctx context.Context, conversationID, failure string, updates ...firestore.Update) error {
	_, err := r.conversations().Doc(conversationID).Update(ctx, updates)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal(failure, err)
	}
	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, conversationID string, message *entity.Message) error {
	ref := r.messages(conversationID).NewDoc()

	wr, err := ref.Create(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	message.ID = ref.ID
	message.CreatedAt = wr.UpdateTime
	return nil
}

func (r *firestoreChatRepository) GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	doc, err := r.messages(conversationID).Doc(messageID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Internal("Failed to get message", err)
	}

	return messageFromDoc(doc)
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	docs, err := r.messages(conversationID).OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing messages for conversation %s: %v", conversationID, err)
		return nil, errors.Internal("Failed to list messages", err)
	}
	return messagesFromDocs(docs)
}

func (r *firestoreChatRepository) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	if _, err := r.messages(conversationID).Doc(messageID).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete message", err)
	}
	return nil
}

func (r *firestoreChatRepository) SetReaction(ctx context.Context, conversationID, messageID, userID, emoji string) error {
	return r.updateReaction(ctx, conversationID, messageID, userID, emoji)
}

func (r *firestoreChatRepository) ClearReaction(ctx context.Context, conversationID, messageID, userID string) error {
	return r.updateReaction(ctx, conversationID, messageID, userID, firestore.Delete)
}

func (r *firestoreChatRepository) updateReaction(ctx context.Context, conversationID, messageID, userID string, value interface{}) error {
	_, err := r.messages(conversationID).Doc(messageID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"reactions", userID}, Value: value},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to update reaction", err)
	}
	return nil
}

func (r *firestoreChatRepository) WatchMessages(ctx context.Context, conversationID string, fn func([]*entity.Message)) (repository.Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	snapshots := r.messages(conversationID).OrderBy("createdAt", firestore.Asc).Snapshots(ctx)

	go func() {
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				logWatchEnd(ctx, "messages", conversationID, err)
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logWatchEnd(ctx, "messages", conversationID, err)
				return
			}
			messages, err := messagesFromDocs(docs)
			if err != nil {
				logger.Error("Dropping message snapshot for conversation %s: %v", conversationID, err)
				continue
			}
			fn(messages)
		}
	}()

	return onceFunc(cancel), nil
}

func (r *firestoreChatRepository) WatchConversation(ctx context.Context, conversationID string, fn func(*entity.Conversation)) (repository.Unsubscribe, error) {
	ctx, cancel := context.WithCancel(ctx)
	snapshots := r.conversations().Doc(conversationID).Snapshots(ctx)

	go func() {
		defer snapshots.Stop()
		for {
			snap, err := snapshots.Next()
			if err != nil {
				logWatchEnd(ctx, "conversation", conversationID, err)
				return
			}
			if !snap.Exists() {
				continue
			}

			conversation, err := conversationFromDoc(snap)
			if err != nil {
				logger.Error("Dropping conversation snapshot %s: %v", conversationID, err)
				continue
			}
			fn(conversation)
		}
	}()

	return onceFunc(cancel), nil
}

func logWatchEnd(ctx context.Context, kind, conversationID string, err error) {
	if err == iterator.Done || status.Code(err) == codes.Canceled || ctx.Err() != nil {
		logger.Debug("Stopped %s watch for conversation %s", kind, conversationID)
		return
	}
	logger.Error("Watch on %s for conversation %s failed: %v", kind, conversationID, err)
}

func onceFunc(fn func()) repository.Unsubscribe {
	var once sync.Once
	return func() { once.Do(fn) }
}

func conversationFromDoc(doc *firestore.DocumentSnapshot) (*entity.Conversation, error) {
	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID
	return &conversation, nil
}

func messageFromDoc(doc *firestore.DocumentSnapshot) (*entity.Message, error) {
	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	message.ID = doc.Ref.ID
	return &message, nil
}

func messagesFromDocs(docs []*firestore.DocumentSnapshot) ([]*entity.Message, error) {
	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		message, err := messageFromDoc(doc)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
