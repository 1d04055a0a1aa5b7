package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skoropad/internal/domain/messaging"
)

func TestMessagingStoreResolvesOneConversationPerPair(t *testing.T) {
	ctx := context.Background()
	store := NewMessagingStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := store.SendMessage(ctx, messaging.SendParams{SenderID: "alice", ReceiverID: "bob", Content: "from alice"})
			require.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := store.SendMessage(ctx, messaging.SendParams{SenderID: "bob", ReceiverID: "alice", Content: "from bob"})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := store.ListConversations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)

	messages, err := store.ListMessages(ctx, list[0].ID)
	require.NoError(t, err)
	require.Len(t, messages, 20)
}

func TestMessagingStoreUnreadCounters(t *testing.T) {
	ctx := context.Background()
	store := NewMessagingStore()

	msg, err := store.SendMessage(ctx, messaging.SendParams{SenderID: "alice", ReceiverID: "bob", Content: "one"})
	require.NoError(t, err)
	_, err = store.SendMessage(ctx, messaging.SendParams{SenderID: "alice", ReceiverID: "bob", Content: "two"})
	require.NoError(t, err)

	conv, err := store.GetConversation(ctx, msg.ConversationID)
	require.NoError(t, err)
	require.Equal(t, 2, conv.UnreadFor("bob"))
	require.Zero(t, conv.UnreadFor("alice"))

	require.NoError(t, store.MarkConversationRead(ctx, conv.ID, "bob"))
	conv, err = store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Zero(t, conv.UnreadFor("bob"))

	messages, err := store.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	for _, m := range messages {
		require.True(t, m.Read)
	}

	// Marking an already read conversation is a no-op, not an error.
	require.NoError(t, store.MarkConversationRead(ctx, conv.ID, "bob"))

	require.ErrorIs(t, store.MarkConversationRead(ctx, conv.ID, "mallory"), messaging.ErrNotParticipant)
	require.ErrorIs(t, store.MarkConversationRead(ctx, "missing", "bob"), messaging.ErrConversationNotFound)
}

func TestMessagingStoreLastMessageJoin(t *testing.T) {
	ctx := context.Background()
	store := NewMessagingStore()

	_, err := store.SendMessage(ctx, messaging.SendParams{SenderID: "alice", ReceiverID: "bob", Content: "first"})
	require.NoError(t, err)
	last, err := store.SendMessage(ctx, messaging.SendParams{SenderID: "bob", ReceiverID: "alice", Content: "second"})
	require.NoError(t, err)

	list, err := store.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].LastMessage)
	require.Equal(t, last.ID, list[0].LastMessage.ID)
	require.Equal(t, "second", list[0].LastMessage.Content)
}

func TestMessagingStoreSubscribeDeliversToReceiverOnly(t *testing.T) {
	ctx := context.Background()
	store := NewMessagingStore()

	var mu sync.Mutex
	var bobGot, carolGot []string
	cancelBob, err := store.Subscribe(ctx, "bob", func(m messaging.Message) {
		mu.Lock()
		bobGot = append(bobGot, m.Content)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancelBob()
	cancelCarol, err := store.Subscribe(ctx, "carol", func(m messaging.Message) {
		mu.Lock()
		carolGot = append(carolGot, m.Content)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancelCarol()

	_, err = store.SendMessage(ctx, messaging.SendParams{SenderID: "alice", ReceiverID: "bob", Content: "for bob"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(bobGot) == 1
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	require.Empty(t, carolGot)
	mu.Unlock()
}

func TestMessagingStoreCancelWaitsForInflightDelivery(t *testing.T) {
	ctx := context.Background()
	store := NewMessagingStore()

	started := make(chan struct{})
	release := make(chan struct{})
	var delivered bool
	cancel, err := store.Subscribe(ctx, "bob", func(messaging.Message) {
		close(started)
		<-release
		delivered = true
	})
	require.NoError(t, err)

	_, err = store.SendMessage(ctx, messaging.SendParams{SenderID: "alice", ReceiverID: "bob", Content: "slow"})
	require.NoError(t, err)
	<-started

	canceled := make(chan struct{})
	go func() {
		cancel()
		close(canceled)
	}()

	select {
	case <-canceled:
		t.Fatal("cancel returned while a delivery was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-canceled
	require.True(t, delivered)

	// After cancel no further deliveries happen.
	_, err = store.SendMessage(ctx, messaging.SendParams{SenderID: "alice", ReceiverID: "bob", Content: "late"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
}
