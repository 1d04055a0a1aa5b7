package dto

import (
	"time"

	"skoropad/internal/app/services/messenger"
	"skoropad/internal/domain/messaging"
	domainuser "skoropad/internal/domain/user"
)

// ChatMessage is the wire form of a single message.
type ChatMessage struct {
	ID              string    `json:"id"`
	SenderID        string    `json:"sender_id"`
	ReceiverID      string    `json:"receiver_id"`
	ConversationID  string    `json:"conversation_id"`
	AdvertisementID string    `json:"advertisement_id,omitempty"`
	Content         string    `json:"content"`
	Read            bool      `json:"read"`
	CreatedAt       time.Time `json:"created_at"`
}

// ChatParticipant is the counterpart profile shown next to a conversation.
// It is omitted when the profile could not be resolved.
type ChatParticipant struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

// ChatConversation is one entry of the conversation list.
type ChatConversation struct {
	ID              string           `json:"id"`
	AdvertisementID string           `json:"advertisement_id,omitempty"`
	OtherUser       *ChatParticipant `json:"other_user,omitempty"`
	LastMessage     *ChatMessage     `json:"last_message,omitempty"`
	Unread          int              `json:"unread"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ChatOverview is the conversation list plus the global unread badge.
type ChatOverview struct {
	Conversations []ChatConversation `json:"conversations"`
	UnreadTotal   int                `json:"unread_total"`
}

// ChatNotification is a pending new-message toast.
type ChatNotification struct {
	Title          string    `json:"title"`
	Preview        string    `json:"preview"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func MapChatMessage(m messaging.Message) ChatMessage {
	return ChatMessage{
		ID:              m.ID,
		SenderID:        string(m.SenderID),
		ReceiverID:      string(m.ReceiverID),
		ConversationID:  m.ConversationID,
		AdvertisementID: m.AdvertisementID,
		Content:         m.Content,
		Read:            m.Read,
		CreatedAt:       m.CreatedAt,
	}
}

func MapChatMessages(list []messaging.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(list))
	for _, m := range list {
		out = append(out, MapChatMessage(m))
	}
	return out
}

func MapChatOverview(views []messenger.ConversationView, userID string, unreadTotal int) ChatOverview {
	conversations := make([]ChatConversation, 0, len(views))
	for _, view := range views {
		conv := ChatConversation{
			ID:              view.ID,
			AdvertisementID: view.AdvertisementID,
			Unread:          view.UnreadFor(domainuser.ID(userID)),
			UpdatedAt:       view.UpdatedAt,
		}
		if view.OtherUser != nil {
			conv.OtherUser = &ChatParticipant{
				ID:       string(view.OtherUser.ID),
				Nickname: view.OtherUser.Nickname,
				Role:     string(view.OtherUser.Role),
			}
		}
		if view.LastMessage != nil {
			last := MapChatMessage(*view.LastMessage)
			conv.LastMessage = &last
		}
		conversations = append(conversations, conv)
	}
	return ChatOverview{Conversations: conversations, UnreadTotal: unreadTotal}
}

func MapChatNotifications(list []messenger.Notification) []ChatNotification {
	out := make([]ChatNotification, 0, len(list))
	for _, n := range list {
		out = append(out, ChatNotification{
			Title:          n.Title,
			Preview:        n.Preview,
			ConversationID: n.ConversationID,
			CreatedAt:      n.CreatedAt,
		})
	}
	return out
}
