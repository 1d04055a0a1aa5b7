package mongo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"skoropad/internal/domain/messaging"
	domainuser "skoropad/internal/domain/user"
)

// EventSink receives committed message inserts for realtime fan-out.
type EventSink interface {
	MessageInserted(ctx context.Context, msg messaging.Message) error
}

// MessagingStore persists conversations and messages. Conversation
// resolution is a single upsert keyed by the canonical participant pair, so
// two simultaneous first messages for the same pair cannot create duplicate
// conversations.
type MessagingStore struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
	events        EventSink
	logger        *slog.Logger
}

func NewMessagingStore(db *mongo.Database, events EventSink, logger *slog.Logger) *MessagingStore {
	return &MessagingStore{
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
		events:        events,
		logger:        logger,
	}
}

func (s *MessagingStore) ListConversations(ctx context.Context, userID domainuser.ID) ([]messaging.Conversation, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"user1_id": string(userID)},
		bson.M{"user2_id": string(userID)},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := s.conversations.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []messaging.Conversation
	for cursor.Next(ctx) {
		var doc conversationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		conv := doc.toEntity()
		if doc.LastMessageID != "" {
			// Denormalized join; a missing last message degrades to nil
			// rather than failing the list.
			if last, err := s.messageByID(ctx, doc.LastMessageID); err == nil {
				conv.LastMessage = last
			} else if s.logger != nil {
				s.logger.Warn("last message lookup failed", "conversation_id", doc.ID, "error", err)
			}
		}
		out = append(out, conv)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MessagingStore) ListMessages(ctx context.Context, conversationID string) ([]messaging.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.messages.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []messaging.Message
	for cursor.Next(ctx) {
		var doc messageDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MessagingStore) GetConversation(ctx context.Context, conversationID string) (messaging.Conversation, error) {
	var doc conversationDocument
	if err := s.conversations.FindOne(ctx, bson.M{"_id": conversationID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return messaging.Conversation{}, messaging.ErrConversationNotFound
		}
		return messaging.Conversation{}, err
	}
	return doc.toEntity(), nil
}

func (s *MessagingStore) SendMessage(ctx context.Context, params messaging.SendParams) (messaging.Message, error) {
	if err := params.Validate(); err != nil {
		return messaging.Message{}, err
	}
	now := time.Now().UTC()

	conv, err := s.resolveConversation(ctx, params, now)
	if err != nil {
		return messaging.Message{}, err
	}

	msg := messaging.Message{
		ID:              uuid.NewString(),
		SenderID:        params.SenderID,
		ReceiverID:      params.ReceiverID,
		ConversationID:  conv.ID,
		AdvertisementID: params.AdvertisementID,
		Content:         params.Content,
		CreatedAt:       now,
	}
	if _, err := s.messages.InsertOne(ctx, newMessageDocument(msg)); err != nil {
		return messaging.Message{}, err
	}

	unreadField := "user2_unread"
	if conv.User1ID == params.ReceiverID {
		unreadField = "user1_unread"
	}
	update := bson.M{
		"$set": bson.M{"last_message_id": msg.ID, "updated_at": now.UnixMilli()},
		"$inc": bson.M{unreadField: 1},
	}
	if _, err := s.conversations.UpdateOne(ctx, bson.M{"_id": conv.ID}, update); err != nil {
		return messaging.Message{}, err
	}

	if s.events != nil {
		if err := s.events.MessageInserted(ctx, msg); err != nil && s.logger != nil {
			// The message is durable; a lost event only delays the receiver
			// until their next full fetch.
			s.logger.Warn("message event publish failed", "message_id", msg.ID, "error", err)
		}
	}
	return msg, nil
}

func (s *MessagingStore) MarkConversationRead(ctx context.Context, conversationID string, userID domainuser.ID) error {
	conv, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.Involves(userID) {
		return messaging.ErrNotParticipant
	}
	unreadField := "user1_unread"
	if conv.User2ID == userID {
		unreadField = "user2_unread"
	}
	if _, err := s.conversations.UpdateOne(ctx, bson.M{"_id": conversationID}, bson.M{"$set": bson.M{unreadField: 0}}); err != nil {
		return err
	}
	_, err = s.messages.UpdateMany(ctx,
		bson.M{"conversation_id": conversationID, "receiver_id": string(userID), "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

// resolveConversation finds or creates the pair conversation in one upsert.
// Relies on a unique index on pair_key.
func (s *MessagingStore) resolveConversation(ctx context.Context, params messaging.SendParams, now time.Time) (messaging.Conversation, error) {
	key := messaging.PairKey(params.SenderID, params.ReceiverID)
	filter := bson.M{"pair_key": key}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":              uuid.NewString(),
		"pair_key":         key,
		"user1_id":         string(params.SenderID),
		"user2_id":         string(params.ReceiverID),
		"advertisement_id": params.AdvertisementID,
		"user1_unread":     0,
		"user2_unread":     0,
		"created_at":       now.UnixMilli(),
		"updated_at":       now.UnixMilli(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc conversationDocument
	if err := s.conversations.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return messaging.Conversation{}, err
	}
	return doc.toEntity(), nil
}

func (s *MessagingStore) messageByID(ctx context.Context, id string) (*messaging.Message, error) {
	var doc messageDocument
	if err := s.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, err
	}
	msg := doc.toEntity()
	return &msg, nil
}

type conversationDocument struct {
	ID              string `bson:"_id"`
	PairKey         string `bson:"pair_key"`
	User1ID         string `bson:"user1_id"`
	User2ID         string `bson:"user2_id"`
	AdvertisementID string `bson:"advertisement_id,omitempty"`
	LastMessageID   string `bson:"last_message_id,omitempty"`
	User1Unread     int    `bson:"user1_unread"`
	User2Unread     int    `bson:"user2_unread"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
}

func (d conversationDocument) toEntity() messaging.Conversation {
	return messaging.Conversation{
		ID:              d.ID,
		User1ID:         domainuser.ID(d.User1ID),
		User2ID:         domainuser.ID(d.User2ID),
		AdvertisementID: d.AdvertisementID,
		LastMessageID:   d.LastMessageID,
		User1Unread:     d.User1Unread,
		User2Unread:     d.User2Unread,
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
	}
}

type messageDocument struct {
	ID              string `bson:"_id"`
	SenderID        string `bson:"sender_id"`
	ReceiverID      string `bson:"receiver_id"`
	ConversationID  string `bson:"conversation_id"`
	AdvertisementID string `bson:"advertisement_id,omitempty"`
	Content         string `bson:"content"`
	Read            bool   `bson:"read"`
	CreatedAt       int64  `bson:"created_at"`
}

func newMessageDocument(m messaging.Message) messageDocument {
	return messageDocument{
		ID:              m.ID,
		SenderID:        string(m.SenderID),
		ReceiverID:      string(m.ReceiverID),
		ConversationID:  m.ConversationID,
		AdvertisementID: m.AdvertisementID,
		Content:         m.Content,
		Read:            m.Read,
		CreatedAt:       m.CreatedAt.UnixMilli(),
	}
}

func (d messageDocument) toEntity() messaging.Message {
	return messaging.Message{
		ID:              d.ID,
		SenderID:        domainuser.ID(d.SenderID),
		ReceiverID:      domainuser.ID(d.ReceiverID),
		ConversationID:  d.ConversationID,
		AdvertisementID: d.AdvertisementID,
		Content:         d.Content,
		Read:            d.Read,
		CreatedAt:       timestampToTime(d.CreatedAt),
	}
}

var _ messaging.Backend = (*MessagingStore)(nil)
