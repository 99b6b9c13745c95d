package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
	"marketsync/pkg/stream"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) messages(chatID string) *firestore.CollectionRef {
	return r.client.Collection("chats").Doc(chatID).Collection("messages")
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = r.client.Collection("chats").NewDoc().ID
	}

	// Create, unlike Set, refuses to overwrite an existing chat.
	_, err := r.client.Collection("chats").Doc(chat.ID).Create(ctx, chat)
	if err != nil {
		if isAlreadyExists(err) {
			return errors.Conflict("Chat already exists")
		}
		return errors.Store("Failed to create chat", err)
	}
	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	return getDoc(ctx, r.client.Collection("chats").Doc(id), decodeChat, "chat")
}

func (r *firestoreChatRepository) FindByTriple(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error) {
	query := r.client.Collection("chats").
		Where("buyerId", "==", buyerID).
		Where("sellerId", "==", sellerID).
		Where("productId", "==", productID).
		Limit(1)

	chats, err := getAll(ctx, query, decodeChat, "chats")
	if err != nil {
		return nil, err
	}
	if len(chats) == 0 {
		return nil, nil
	}
	return chats[0], nil
}

func (r *firestoreChatRepository) WatchByUser(ctx context.Context, userID string) *stream.Stream[[]*entity.Chat] {
	query := r.client.Collection("chats").
		WhereEntity(firestore.OrFilter{
			Filters: []firestore.EntityFilter{
				firestore.PropertyFilter{Path: "buyerId", Operator: "==", Value: userID},
				firestore.PropertyFilter{Path: "sellerId", Operator: "==", Value: userID},
			},
		}).
		OrderBy("createdAt", firestore.Desc)

	return watchQuery(ctx, query, decodeChat, "chats")
}

func (r *firestoreChatRepository) MarkRead(ctx context.Context, chatID, userID string, at time.Time) error {
	_, err := r.client.Collection("chats").Doc(chatID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"readBy", userID}, Value: at},
	})
	if err != nil {
		return errors.Store("Failed to mark chat as read", err)
	}
	return nil
}

func (r *firestoreChatRepository) TouchLastMessage(ctx context.Context, chatID string, at time.Time) error {
	_, err := r.client.Collection("chats").Doc(chatID).Update(ctx, []firestore.Update{
		{Path: "lastMessageAt", Value: at},
	})
	if err != nil {
		return errors.Store("Failed to send message", err)
	}
	return nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	ref := r.messages(message.ChatID).NewDoc()

	// createdAt is assigned by the server; the commit time is the same value.
	result, err := ref.Create(ctx, map[string]interface{}{
		"senderId":  message.SenderID,
		"content":   message.Content,
		"type":      string(message.Type),
		"createdAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return errors.Store("Failed to send message", err)
	}

	message.ID = ref.ID
	message.CreatedAt = result.UpdateTime
	return nil
}

func (r *firestoreChatRepository) WatchMessages(ctx context.Context, chatID string) *stream.Stream[[]*entity.Message] {
	query := r.messages(chatID).OrderBy("createdAt", firestore.Asc)
	return watchQuery(ctx, query, decodeMessage, "messages")
}
