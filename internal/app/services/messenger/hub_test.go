package messenger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skoropad/internal/app/services/messenger"
	"skoropad/internal/infra/storage/memory"
)

func TestHubReusesSessionPerUser(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	hub := messenger.NewHub(store, messenger.UserDirectory{Users: users}, store, nil)
	t.Cleanup(hub.Close)

	first, err := hub.Session(ctx, "alice")
	require.NoError(t, err)
	second, err := hub.Session(ctx, "alice")
	require.NoError(t, err)
	require.Same(t, first, second)

	other, err := hub.Session(ctx, "bob")
	require.NoError(t, err)
	require.NotSame(t, first, other)

	_, err = hub.Session(ctx, "")
	require.ErrorIs(t, err, messenger.ErrNotSignedIn)
}

func TestHubDropTearsDownSubscription(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	users := memory.NewUserRepository()
	seedUser(t, users, "alice", "alice")
	seedUser(t, users, "bob", "bob")
	hub := messenger.NewHub(store, messenger.UserDirectory{Users: users}, store, nil)
	t.Cleanup(hub.Close)

	bob, err := hub.Session(ctx, "bob")
	require.NoError(t, err)
	hub.Drop("bob")

	alice, err := hub.Session(ctx, "alice")
	require.NoError(t, err)
	_, err = alice.SendMessage(ctx, "bob", "anyone there", "")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.Zero(t, bob.UnreadCount())

	// A fresh session after the drop picks up the feed again.
	bob2, err := hub.Session(ctx, "bob")
	require.NoError(t, err)
	require.NotSame(t, bob, bob2)

	_, err = alice.SendMessage(ctx, "bob", "now?", "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return bob2.UnreadCount() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestHubCloseRejectsNewSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMessagingStore()
	hub := messenger.NewHub(store, messenger.UserDirectory{Users: memory.NewUserRepository()}, store, nil)
	hub.Close()

	_, err := hub.Session(ctx, "alice")
	require.ErrorIs(t, err, messenger.ErrClosed)
}
