package messaging

import (
	"context"
	"errors"
	"strings"
	"time"

	"skoropad/internal/domain/user"
)

var (
	ErrSenderRequired       = errors.New("messaging: sender is required")
	ErrReceiverRequired     = errors.New("messaging: receiver is required")
	ErrSelfConversation     = errors.New("messaging: cannot message yourself")
	ErrContentRequired      = errors.New("messaging: content is required")
	ErrConversationNotFound = errors.New("messaging: conversation not found")
	ErrNotParticipant       = errors.New("messaging: not a conversation participant")
)

// Conversation is a durable pairing of two users, optionally tied to an
// advertisement. Which slot holds a given user varies per row; callers resolve
// it through Involves, OtherParticipant and UnreadFor.
type Conversation struct {
	ID              string
	User1ID         user.ID
	User2ID         user.ID
	AdvertisementID string
	LastMessageID   string
	LastMessage     *Message
	User1Unread     int
	User2Unread     int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c Conversation) Involves(id user.ID) bool {
	return c.User1ID == id || c.User2ID == id
}

// OtherParticipant returns the participant that is not the given user. The
// second result is false when the user occupies neither slot.
func (c Conversation) OtherParticipant(id user.ID) (user.ID, bool) {
	switch id {
	case c.User1ID:
		return c.User2ID, true
	case c.User2ID:
		return c.User1ID, true
	default:
		return "", false
	}
}

// UnreadFor returns the unread counter belonging to the given participant.
func (c Conversation) UnreadFor(id user.ID) int {
	switch id {
	case c.User1ID:
		return c.User1Unread
	case c.User2ID:
		return c.User2Unread
	default:
		return 0
	}
}

// Message is immutable after creation except for the read flag.
type Message struct {
	ID              string
	SenderID        user.ID
	ReceiverID      user.ID
	ConversationID  string
	AdvertisementID string
	Content         string
	Read            bool
	CreatedAt       time.Time
}

// Profile is the public slice of a user shown next to a conversation.
type Profile struct {
	ID       user.ID
	Nickname string
	Role     user.Role
}

type SendParams struct {
	SenderID        user.ID
	ReceiverID      user.ID
	Content         string
	AdvertisementID string
}

// Validate rejects structurally invalid sends before any backend call. Content
// emptiness is judged on the trimmed text, but the original content is what
// gets stored.
func (p SendParams) Validate() error {
	if strings.TrimSpace(string(p.SenderID)) == "" {
		return ErrSenderRequired
	}
	if strings.TrimSpace(string(p.ReceiverID)) == "" {
		return ErrReceiverRequired
	}
	if p.SenderID == p.ReceiverID {
		return ErrSelfConversation
	}
	if strings.TrimSpace(p.Content) == "" {
		return ErrContentRequired
	}
	return nil
}

// PairKey is the canonical identity of a user pair, independent of who
// messaged first. Backends key conversation resolution on it so concurrent
// first messages land in one conversation.
func PairKey(a, b user.ID) string {
	if b < a {
		a, b = b, a
	}
	return string(a) + "|" + string(b)
}

// Backend is the platform boundary for conversation and message state. All
// reads are full snapshots; SendMessage must atomically resolve or create the
// pair conversation so that two simultaneous first messages cannot produce
// duplicate conversations.
type Backend interface {
	ListConversations(ctx context.Context, userID user.ID) ([]Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	GetConversation(ctx context.Context, conversationID string) (Conversation, error)
	SendMessage(ctx context.Context, params SendParams) (Message, error)
	MarkConversationRead(ctx context.Context, conversationID string, userID user.ID) error
}

// Directory resolves public profiles for conversation counterparts.
type Directory interface {
	PublicProfile(ctx context.Context, id user.ID) (Profile, error)
}

// Feed delivers insert events for messages addressed to a receiver,
// at-least-once and unordered relative to Backend reads. The returned cancel
// func detaches the callback; implementations must not invoke the callback
// after cancel returns.
type Feed interface {
	Subscribe(ctx context.Context, receiverID user.ID, fn func(Message)) (cancel func(), err error)
}
