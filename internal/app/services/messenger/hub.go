package messenger

import (
	"context"
	"log/slog"
	"sync"

	"skoropad/internal/domain/messaging"
	"skoropad/internal/domain/user"
)

// Hub owns one Session per signed-in user. Sessions are created lazily on
// first use and torn down on sign-out, so feed subscriptions never leak
// across identities.
type Hub struct {
	Backend   messaging.Backend
	Directory messaging.Directory
	Feed      messaging.Feed
	Logger    *slog.Logger
	InboxCap  int

	mu       sync.Mutex
	sessions map[user.ID]*Session
	closed   bool
}

func NewHub(backend messaging.Backend, directory messaging.Directory, feed messaging.Feed, logger *slog.Logger) *Hub {
	return &Hub{
		Backend:   backend,
		Directory: directory,
		Feed:      feed,
		Logger:    logger,
		sessions:  make(map[user.ID]*Session),
	}
}

// Session returns the user's session, creating and subscribing it when absent.
func (h *Hub) Session(ctx context.Context, userID user.ID) (*Session, error) {
	if userID == "" {
		return nil, ErrNotSignedIn
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if existing, ok := h.sessions[userID]; ok {
		return existing, nil
	}
	session, err := NewSession(ctx, userID, SessionDeps{
		Backend:   h.Backend,
		Directory: h.Directory,
		Feed:      h.Feed,
		Notifier:  NewInbox(h.InboxCap),
		Logger:    h.Logger,
	})
	if err != nil {
		return nil, err
	}
	h.sessions[userID] = session
	return session, nil
}

// Drop closes and removes the user's session. Called on sign-out.
func (h *Hub) Drop(userID user.ID) {
	h.mu.Lock()
	session, ok := h.sessions[userID]
	delete(h.sessions, userID)
	h.mu.Unlock()
	if ok {
		session.Close()
	}
}

// Close tears down every live session. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[user.ID]*Session)
	h.closed = true
	h.mu.Unlock()
	for _, session := range sessions {
		session.Close()
	}
}
