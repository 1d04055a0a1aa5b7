package messenger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"skoropad/internal/domain/messaging"
	"skoropad/internal/domain/user"
)

var (
	ErrNotSignedIn = errors.New("messenger: user is not signed in")
	ErrClosed      = errors.New("messenger: session closed")
)

// ConversationView is a conversation joined with the counterpart's public
// profile. OtherUser is nil when the profile lookup failed or the counterpart
// no longer exists; the conversation itself is still shown.
type ConversationView struct {
	messaging.Conversation
	OtherUser *messaging.Profile
}

// Session synchronizes one signed-in user's conversations and the message
// list of the single active conversation against the messaging backend.
// Every refresh is a full replace; partial results never overwrite state.
type Session struct {
	userID    user.ID
	backend   messaging.Backend
	directory messaging.Directory
	notifier  Notifier
	logger    *slog.Logger

	// lifetime outlives the request that created the session; feed callbacks
	// run against it, never against the construction context.
	lifetime     context.Context
	stopLifetime context.CancelFunc

	mu            sync.Mutex
	conversations []ConversationView
	messages      []messaging.Message
	active        string
	unread        int
	cancelFeed    func()
	closed        bool
}

type SessionDeps struct {
	Backend   messaging.Backend
	Directory messaging.Directory
	Feed      messaging.Feed
	Notifier  Notifier
	Logger    *slog.Logger
}

// NewSession builds a session and installs the realtime subscription for
// messages addressed to the user. ctx only bounds the subscription setup;
// ingestion runs on the session's own lifetime, which ends at Close. Close
// must be called on sign-out so the subscription does not outlive the
// identity it was created for.
func NewSession(ctx context.Context, userID user.ID, deps SessionDeps) (*Session, error) {
	if userID == "" {
		return nil, ErrNotSignedIn
	}
	if deps.Backend == nil {
		return nil, errors.New("messenger: backend is required")
	}
	lifetime, stop := context.WithCancel(context.Background())
	s := &Session{
		userID:       userID,
		backend:      deps.Backend,
		directory:    deps.Directory,
		notifier:     deps.Notifier,
		logger:       deps.Logger,
		lifetime:     lifetime,
		stopLifetime: stop,
	}
	if deps.Feed != nil {
		cancel, err := deps.Feed.Subscribe(ctx, userID, func(msg messaging.Message) {
			s.ingest(s.lifetime, msg)
		})
		if err != nil {
			stop()
			return nil, fmt.Errorf("messenger: subscribe: %w", err)
		}
		s.cancelFeed = cancel
	}
	return s, nil
}

func (s *Session) UserID() user.ID { return s.userID }

// Close cancels the realtime subscription and the session lifetime.
// Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	cancel := s.cancelFeed
	s.cancelFeed = nil
	s.closed = true
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.stopLifetime()
}

// Conversations returns the current conversation list snapshot, most recently
// active first.
func (s *Session) Conversations() []ConversationView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ConversationView(nil), s.conversations...)
}

// Messages returns the message list of the active conversation, oldest first.
func (s *Session) Messages() []messaging.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]messaging.Message(nil), s.messages...)
}

// UnreadCount is the global badge count: the sum of the user's unread counter
// across all conversations, recomputed on every conversation refresh.
func (s *Session) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

func (s *Session) ActiveConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetActiveConversation records which conversation the chat view displays.
// It deliberately triggers no fetch; the consumer pairs it with FetchMessages
// and MarkAsRead, mirroring the view flow.
func (s *Session) SetActiveConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != id {
		s.active = id
		s.messages = nil
	}
}

// FetchConversations reloads every conversation involving the user, resolves
// counterpart profiles, sorts most recently updated first and recomputes the
// unread badge. On any backend error the stored list is left untouched.
func (s *Session) FetchConversations(ctx context.Context) error {
	list, err := s.backend.ListConversations(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("messenger: load conversations: %w", err)
	}

	views := make([]ConversationView, 0, len(list))
	for _, conv := range list {
		if !conv.Involves(s.userID) {
			continue
		}
		view := ConversationView{Conversation: conv}
		if otherID, ok := conv.OtherParticipant(s.userID); ok && s.directory != nil {
			profile, err := s.directory.PublicProfile(ctx, otherID)
			if err != nil {
				// Counterpart lookup failures degrade to a nil profile
				// instead of failing the whole list.
				if s.logger != nil {
					s.logger.Warn("counterpart profile lookup failed", "user_id", otherID, "error", err)
				}
			} else {
				view.OtherUser = &profile
			}
		}
		views = append(views, view)
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].UpdatedAt.After(views[j].UpdatedAt)
	})

	total := 0
	for _, view := range views {
		total += view.UnreadFor(s.userID)
	}

	s.mu.Lock()
	s.conversations = views
	s.unread = total
	s.mu.Unlock()
	return nil
}

// FetchMessages reloads the full message list of the given conversation. The
// response is discarded when the active conversation changed while the
// request was in flight, so a slow reply can never overwrite another
// conversation's pane.
func (s *Session) FetchMessages(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return messaging.ErrConversationNotFound
	}
	list, err := s.backend.ListMessages(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("messenger: load messages: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != conversationID {
		if s.logger != nil {
			s.logger.Debug("discarding stale message fetch", "conversation_id", conversationID, "active", s.active)
		}
		return nil
	}
	s.messages = list
	return nil
}

// SendMessage delivers content to the receiver. Conversation resolution is a
// single atomic backend operation, so two users messaging each other for the
// first time concurrently still end up in one conversation. On success the
// message is echoed into the active pane (deduplicated against the realtime
// copy by id) and the conversation list is refreshed.
func (s *Session) SendMessage(ctx context.Context, receiverID user.ID, content string, advertisementID string) (messaging.Message, error) {
	params := messaging.SendParams{
		SenderID:        s.userID,
		ReceiverID:      receiverID,
		Content:         content,
		AdvertisementID: advertisementID,
	}
	if err := params.Validate(); err != nil {
		return messaging.Message{}, err
	}

	msg, err := s.backend.SendMessage(ctx, params)
	if err != nil {
		return messaging.Message{}, fmt.Errorf("messenger: send: %w", err)
	}

	s.mu.Lock()
	if s.active == msg.ConversationID {
		s.appendLocked(msg)
	}
	s.mu.Unlock()

	if err := s.FetchConversations(ctx); err != nil {
		return msg, err
	}
	return msg, nil
}

// MarkAsRead zeroes the user's unread counter for the conversation and
// refreshes the conversation list. There is no optimistic local zeroing; the
// refreshed snapshot is authoritative. Safe to call when already read.
func (s *Session) MarkAsRead(ctx context.Context, conversationID string) error {
	if conversationID == "" {
		return messaging.ErrConversationNotFound
	}
	if err := s.backend.MarkConversationRead(ctx, conversationID, s.userID); err != nil {
		return fmt.Errorf("messenger: mark read: %w", err)
	}
	return s.FetchConversations(ctx)
}

// Notifications drains pending message toasts, when the session was built
// with an Inbox notifier.
func (s *Session) Notifications() []Notification {
	inbox, ok := s.notifier.(*Inbox)
	if !ok || inbox == nil {
		return nil
	}
	return inbox.Drain()
}

// ingest folds one realtime insert event into the stores: notify, append to
// the active pane (marking it read), and refresh the conversation list so
// ordering and unread badges track conversations that are not open.
func (s *Session) ingest(ctx context.Context, msg messaging.Message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	activeHit := s.active == msg.ConversationID
	if activeHit {
		s.appendLocked(msg)
	}
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier.Notify(Notification{
			Title:          "Нове повідомлення",
			Preview:        msg.Content,
			ConversationID: msg.ConversationID,
			CreatedAt:      msg.CreatedAt,
		})
	}

	if activeHit {
		if err := s.MarkAsRead(ctx, msg.ConversationID); err != nil && s.logger != nil {
			s.logger.Warn("mark read after realtime message failed", "conversation_id", msg.ConversationID, "error", err)
		}
		return
	}
	if err := s.FetchConversations(ctx); err != nil && s.logger != nil {
		s.logger.Warn("conversation refresh after realtime message failed", "error", err)
	}
}

// appendLocked appends a message to the active pane unless a copy with the
// same id is already present. The optimistic send echo and the realtime feed
// both deliver the same message; exactly one wins.
func (s *Session) appendLocked(msg messaging.Message) {
	for _, existing := range s.messages {
		if existing.ID == msg.ID {
			return
		}
	}
	s.messages = append(s.messages, msg)
}
