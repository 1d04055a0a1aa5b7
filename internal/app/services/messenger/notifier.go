package messenger

import (
	"sync"
	"time"
)

// Notification is the preview toast emitted for an incoming message. Opening
// ConversationID is the action the consumer should offer.
type Notification struct {
	Title          string    `json:"title"`
	Preview        string    `json:"preview"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// Notifier consumes notifications. Notify must never block the caller.
type Notifier interface {
	Notify(n Notification)
}

// Inbox buffers notifications until a consumer drains them. When full, the
// oldest entry is dropped so feed ingestion never blocks.
type Inbox struct {
	mu      sync.Mutex
	pending []Notification
	cap     int
}

func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = 64
	}
	return &Inbox{cap: capacity}
}

func (i *Inbox) Notify(n Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.pending) >= i.cap {
		i.pending = i.pending[1:]
	}
	i.pending = append(i.pending, n)
}

// Drain returns all pending notifications and empties the inbox.
func (i *Inbox) Drain() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.pending
	i.pending = nil
	return out
}

var _ Notifier = (*Inbox)(nil)
