package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"skoropad/internal/domain/messaging"
	domainuser "skoropad/internal/domain/user"
)

// MessagingStore keeps conversations and messages in memory and doubles as
// the realtime feed for them. One mutex covers conversation resolution and
// message insertion, which makes SendMessage atomic: concurrent first
// messages between the same pair land in a single conversation.
type MessagingStore struct {
	mu            sync.Mutex
	conversations map[string]*messaging.Conversation
	messages      map[string][]messaging.Message
	pairIndex     map[string]string

	subMu sync.RWMutex
	subs  map[*subscription]struct{}
}

func NewMessagingStore() *MessagingStore {
	return &MessagingStore{
		conversations: make(map[string]*messaging.Conversation),
		messages:      make(map[string][]messaging.Message),
		pairIndex:     make(map[string]string),
		subs:          make(map[*subscription]struct{}),
	}
}

func (s *MessagingStore) ListConversations(ctx context.Context, userID domainuser.ID) ([]messaging.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []messaging.Conversation
	for _, conv := range s.conversations {
		if !conv.Involves(userID) {
			continue
		}
		out = append(out, s.snapshotLocked(conv))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MessagingStore) ListMessages(ctx context.Context, conversationID string) ([]messaging.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return nil, messaging.ErrConversationNotFound
	}
	list := append([]messaging.Message(nil), s.messages[conversationID]...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (s *MessagingStore) GetConversation(ctx context.Context, conversationID string) (messaging.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return messaging.Conversation{}, messaging.ErrConversationNotFound
	}
	return s.snapshotLocked(conv), nil
}

func (s *MessagingStore) SendMessage(ctx context.Context, params messaging.SendParams) (messaging.Message, error) {
	if err := params.Validate(); err != nil {
		return messaging.Message{}, err
	}
	now := time.Now().UTC()

	s.mu.Lock()
	conv := s.resolveConversationLocked(params, now)
	msg := messaging.Message{
		ID:              uuid.NewString(),
		SenderID:        params.SenderID,
		ReceiverID:      params.ReceiverID,
		ConversationID:  conv.ID,
		AdvertisementID: params.AdvertisementID,
		Content:         params.Content,
		CreatedAt:       now,
	}
	s.messages[conv.ID] = append(s.messages[conv.ID], msg)
	conv.LastMessageID = msg.ID
	conv.UpdatedAt = now
	if conv.User1ID == params.ReceiverID {
		conv.User1Unread++
	} else {
		conv.User2Unread++
	}
	s.mu.Unlock()

	s.publish(msg)
	return msg, nil
}

func (s *MessagingStore) MarkConversationRead(ctx context.Context, conversationID string, userID domainuser.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return messaging.ErrConversationNotFound
	}
	if !conv.Involves(userID) {
		return messaging.ErrNotParticipant
	}
	switch userID {
	case conv.User1ID:
		conv.User1Unread = 0
	case conv.User2ID:
		conv.User2Unread = 0
	}
	list := s.messages[conversationID]
	for i := range list {
		if list[i].ReceiverID == userID {
			list[i].Read = true
		}
	}
	return nil
}

// Subscribe registers a callback for messages addressed to the receiver.
// Deliveries run on their own goroutines; cancel blocks until in-flight
// callbacks return and guarantees none start afterwards.
func (s *MessagingStore) Subscribe(ctx context.Context, receiverID domainuser.ID, fn func(messaging.Message)) (func(), error) {
	sub := &subscription{receiver: receiverID, fn: fn}
	s.subMu.Lock()
	s.subs[sub] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		delete(s.subs, sub)
		s.subMu.Unlock()
		sub.stop()
	}
	return cancel, nil
}

func (s *MessagingStore) publish(msg messaging.Message) {
	s.subMu.RLock()
	targets := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		if sub.receiver == msg.ReceiverID {
			targets = append(targets, sub)
		}
	}
	s.subMu.RUnlock()
	for _, sub := range targets {
		go sub.deliver(msg)
	}
}

func (s *MessagingStore) resolveConversationLocked(params messaging.SendParams, now time.Time) *messaging.Conversation {
	key := messaging.PairKey(params.SenderID, params.ReceiverID)
	if id, ok := s.pairIndex[key]; ok {
		return s.conversations[id]
	}
	conv := &messaging.Conversation{
		ID:              uuid.NewString(),
		User1ID:         params.SenderID,
		User2ID:         params.ReceiverID,
		AdvertisementID: params.AdvertisementID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.conversations[conv.ID] = conv
	s.pairIndex[key] = conv.ID
	return conv
}

// snapshotLocked copies a conversation with its last message joined in.
func (s *MessagingStore) snapshotLocked(conv *messaging.Conversation) messaging.Conversation {
	out := *conv
	if conv.LastMessageID != "" {
		for _, msg := range s.messages[conv.ID] {
			if msg.ID == conv.LastMessageID {
				last := msg
				out.LastMessage = &last
				break
			}
		}
	}
	return out
}

type subscription struct {
	receiver domainuser.ID
	fn       func(messaging.Message)

	mu      sync.RWMutex
	stopped bool
}

func (s *subscription) deliver(msg messaging.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return
	}
	s.fn(msg)
}

func (s *subscription) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

var _ messaging.Backend = (*MessagingStore)(nil)
var _ messaging.Feed = (*MessagingStore)(nil)
