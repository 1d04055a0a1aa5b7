package messenger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skoropad/internal/app/services/messenger"
	"skoropad/internal/domain/messaging"
	domainuser "skoropad/internal/domain/user"
	"skoropad/internal/infra/storage/memory"
)

func seedUser(t *testing.T, repo *memory.UserRepository, id, nickname string) *domainuser.User {
	t.Helper()
	u, err := domainuser.New(domainuser.CreateParams{
		ID:           domainuser.ID(id),
		Nickname:     nickname,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), u))
	return u
}

func newTestSession(t *testing.T, userID domainuser.ID, store *memory.MessagingStore, users *memory.UserRepository) *messenger.Session {
	t.Helper()
	session, err := messenger.NewSession(context.Background(), userID, messenger.SessionDeps{
		Backend:   store,
		Directory: messenger.UserDirectory{Users: users},
		Feed:      store,
		Notifier:  messenger.NewInbox(0),
	})
	require.NoError(t, err)
	t.Cleanup(session.Close)
	return session
}

func TestSessionSendAndFetch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	alice := newTestSession(t, "alice", store, users)

	msg, err := alice.SendMessage(ctx, "bob", "Привіт!", "ad-1")
	require.NoError(t, err)
	require.Equal(t, "Привіт!", msg.Content)
	require.NotEmpty(t, msg.ConversationID)

	t.Run("sender conversation list", func(t *testing.T) {
		conversations := alice.Conversations()
		require.Len(t, conversations, 1)
		require.Equal(t, msg.ConversationID, conversations[0].ID)
		require.NotNil(t, conversations[0].OtherUser)
		require.Equal(t, "bob", conversations[0].OtherUser.Nickname)
		require.Zero(t, alice.UnreadCount())
	})

	t.Run("receiver unread badge", func(t *testing.T) {
		bob := newTestSession(t, "bob", store, users)
		require.NoError(t, bob.FetchConversations(ctx))
		require.Equal(t, 1, bob.UnreadCount())
		conversations := bob.Conversations()
		require.Len(t, conversations, 1)
		require.NotNil(t, conversations[0].OtherUser)
		require.Equal(t, "alice", conversations[0].OtherUser.Nickname)
	})

	t.Run("messages ascend by creation", func(t *testing.T) {
		_, err := alice.SendMessage(ctx, "bob", "Ще одне", "")
		require.NoError(t, err)

		alice.SetActiveConversation(msg.ConversationID)
		require.NoError(t, alice.FetchMessages(ctx, msg.ConversationID))
		list := alice.Messages()
		require.Len(t, list, 2)
		require.Equal(t, "Привіт!", list[0].Content)
		require.Equal(t, "Ще одне", list[1].Content)
	})
}

func TestSessionRejectsInvalidSendLocally(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	alice := newTestSession(t, "alice", store, users)

	_, err := alice.SendMessage(ctx, "bob", "   ", "")
	require.ErrorIs(t, err, messaging.ErrContentRequired)

	_, err = alice.SendMessage(ctx, "alice", "hi", "")
	require.ErrorIs(t, err, messaging.ErrSelfConversation)

	// Nothing reached the backend.
	list, err := store.ListConversations(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestSessionEchoDeduplicatesRealtimeCopy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	alice := newTestSession(t, "alice", store, users)
	bob := newTestSession(t, "bob", store, users)

	first, err := bob.SendMessage(ctx, "alice", "hello", "")
	require.NoError(t, err)

	alice.SetActiveConversation(first.ConversationID)
	require.NoError(t, alice.FetchMessages(ctx, first.ConversationID))

	// Alice replies in the open conversation. The send echo lands
	// immediately; the feed delivers nothing to her because she is the
	// sender, so exactly one copy must remain.
	reply, err := alice.SendMessage(ctx, "bob", "hi bob", "")
	require.NoError(t, err)
	require.Equal(t, first.ConversationID, reply.ConversationID)

	seen := 0
	for _, m := range alice.Messages() {
		if m.ID == reply.ID {
			seen++
		}
	}
	require.Equal(t, 1, seen)

	// Bob has the conversation open too; the realtime copy of the reply must
	// appear exactly once even after a full refetch.
	bob.SetActiveConversation(first.ConversationID)
	require.NoError(t, bob.FetchMessages(ctx, first.ConversationID))
	seen = 0
	for _, m := range bob.Messages() {
		if m.ID == reply.ID {
			seen++
		}
	}
	require.Equal(t, 1, seen)
}

func TestSessionStaleFetchDiscarded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")
	seedUser(t, users, "carol", "carol")

	alice := newTestSession(t, "alice", store, users)
	withBob, err := alice.SendMessage(ctx, "bob", "to bob", "")
	require.NoError(t, err)
	withCarol, err := alice.SendMessage(ctx, "carol", "to carol", "")
	require.NoError(t, err)

	// The user switched to the carol conversation while the bob fetch was in
	// flight; the bob response must not overwrite the carol pane.
	alice.SetActiveConversation(withCarol.ConversationID)
	require.NoError(t, alice.FetchMessages(ctx, withCarol.ConversationID))
	require.NoError(t, alice.FetchMessages(ctx, withBob.ConversationID))

	list := alice.Messages()
	require.Len(t, list, 1)
	require.Equal(t, "to carol", list[0].Content)
}

func TestSessionRealtimeIngestion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	bob := newTestSession(t, "bob", store, users)
	alice := newTestSession(t, "alice", store, users)

	msg, err := alice.SendMessage(ctx, "bob", "ping", "")
	require.NoError(t, err)

	// Bob does not have the conversation open: the unread badge rises and a
	// notification is queued.
	require.Eventually(t, func() bool {
		return bob.UnreadCount() == 1
	}, time.Second, 10*time.Millisecond)

	notifications := bob.Notifications()
	require.Len(t, notifications, 1)
	require.Equal(t, "Нове повідомлення", notifications[0].Title)
	require.Equal(t, "ping", notifications[0].Preview)
	require.Equal(t, msg.ConversationID, notifications[0].ConversationID)

	// Draining empties the inbox.
	require.Empty(t, bob.Notifications())
}

func TestSessionRealtimeIntoActiveConversation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	alice := newTestSession(t, "alice", store, users)
	first, err := alice.SendMessage(ctx, "bob", "opener", "")
	require.NoError(t, err)

	bob := newTestSession(t, "bob", store, users)
	bob.SetActiveConversation(first.ConversationID)
	require.NoError(t, bob.FetchMessages(ctx, first.ConversationID))
	require.NoError(t, bob.MarkAsRead(ctx, first.ConversationID))

	_, err = alice.SendMessage(ctx, "bob", "live", "")
	require.NoError(t, err)

	// The open pane receives the message and it is marked read right away,
	// so the badge stays at zero.
	require.Eventually(t, func() bool {
		for _, m := range bob.Messages() {
			if m.Content == "live" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return bob.UnreadCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSessionMarkAsReadIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	alice := newTestSession(t, "alice", store, users)
	msg, err := alice.SendMessage(ctx, "bob", "once", "")
	require.NoError(t, err)

	bob := newTestSession(t, "bob", store, users)
	require.NoError(t, bob.MarkAsRead(ctx, msg.ConversationID))
	require.Zero(t, bob.UnreadCount())
	require.NoError(t, bob.MarkAsRead(ctx, msg.ConversationID))
	require.Zero(t, bob.UnreadCount())
}

func TestSessionCloseStopsIngestion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	alice := newTestSession(t, "alice", store, users)
	bob := newTestSession(t, "bob", store, users)
	bob.Close()

	_, err := alice.SendMessage(ctx, "bob", "after close", "")
	require.NoError(t, err)

	// Give the feed goroutine a chance; nothing may arrive.
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, bob.UnreadCount())
	require.Empty(t, bob.Notifications())
}

// contextAwareBackend fails any call whose context is already done, the way
// a real driver does; the bare memory store ignores its context argument.
type contextAwareBackend struct {
	messaging.Backend
}

func (b contextAwareBackend) ListConversations(ctx context.Context, userID domainuser.ID) ([]messaging.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.Backend.ListConversations(ctx, userID)
}

func (b contextAwareBackend) MarkConversationRead(ctx context.Context, conversationID string, userID domainuser.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Backend.MarkConversationRead(ctx, conversationID, userID)
}

func TestSessionIngestionOutlivesCreationContext(t *testing.T) {
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")

	requestCtx, finishRequest := context.WithCancel(context.Background())
	bob, err := messenger.NewSession(requestCtx, "bob", messenger.SessionDeps{
		Backend:   contextAwareBackend{Backend: store},
		Directory: messenger.UserDirectory{Users: users},
		Feed:      store,
		Notifier:  messenger.NewInbox(0),
	})
	require.NoError(t, err)
	t.Cleanup(bob.Close)

	// The HTTP request that created the session is long gone by the time
	// realtime events arrive.
	finishRequest()

	alice := newTestSession(t, "alice", store, users)
	_, err = alice.SendMessage(context.Background(), "bob", "Ти ще тут?", "")
	require.NoError(t, err)

	// Ingestion refreshes the conversation list; a dead context would make
	// the refresh fail and leave the badge at zero.
	require.Eventually(t, func() bool {
		return bob.UnreadCount() == 1
	}, time.Second, 10*time.Millisecond)
}
