package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"skoropad/internal/domain/messaging"
	domainuser "skoropad/internal/domain/user"
)

// messageEvent is the wire form of a message insert. Keyed by receiver so a
// single receiver's events stay ordered within a partition.
type messageEvent struct {
	ID              string `json:"id"`
	SenderID        string `json:"sender_id"`
	ReceiverID      string `json:"receiver_id"`
	ConversationID  string `json:"conversation_id"`
	AdvertisementID string `json:"advertisement_id,omitempty"`
	Content         string `json:"content"`
	CreatedAt       int64  `json:"created_at"`
}

// Sink publishes committed message inserts to the broker.
type Sink struct {
	producer *Producer
	topic    string
}

func NewSink(producer *Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

func (s *Sink) MessageInserted(ctx context.Context, msg messaging.Message) error {
	payload, err := json.Marshal(messageEvent{
		ID:              msg.ID,
		SenderID:        string(msg.SenderID),
		ReceiverID:      string(msg.ReceiverID),
		ConversationID:  msg.ConversationID,
		AdvertisementID: msg.AdvertisementID,
		Content:         msg.Content,
		CreatedAt:       msg.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return err
	}
	return s.producer.Publish(ctx, s.topic, string(msg.ReceiverID), payload, nil)
}

// Feed consumes message insert events and fans them out to in-process
// subscribers by receiver. It is the broker-backed counterpart of the
// in-memory feed and honors the same cancel contract: cancel blocks until any
// in-flight callback for that subscription has returned.
type Feed struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[domainuser.ID][]*feedSubscription
}

func NewFeed(logger *slog.Logger) *Feed {
	return &Feed{logger: logger, subs: make(map[domainuser.ID][]*feedSubscription)}
}

func (f *Feed) Subscribe(ctx context.Context, receiverID domainuser.ID, fn func(messaging.Message)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &feedSubscription{fn: fn}
	f.mu.Lock()
	f.subs[receiverID] = append(f.subs[receiverID], sub)
	f.mu.Unlock()

	cancel := func() {
		sub.stop()
		f.mu.Lock()
		defer f.mu.Unlock()
		remaining := f.subs[receiverID][:0]
		for _, s := range f.subs[receiverID] {
			if s != sub {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) == 0 {
			delete(f.subs, receiverID)
		} else {
			f.subs[receiverID] = remaining
		}
	}
	return cancel, nil
}

// Handle implements MessageHandler for the consumer group loop.
func (f *Feed) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event messageEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// Poison payloads are logged and marked so the partition keeps moving.
		if f.logger != nil {
			f.logger.Warn("undecodable message event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
		return nil
	}
	f.dispatch(messaging.Message{
		ID:              event.ID,
		SenderID:        domainuser.ID(event.SenderID),
		ReceiverID:      domainuser.ID(event.ReceiverID),
		ConversationID:  event.ConversationID,
		AdvertisementID: event.AdvertisementID,
		Content:         event.Content,
		CreatedAt:       timestampToTime(event.CreatedAt),
	})
	return nil
}

func (f *Feed) dispatch(msg messaging.Message) {
	f.mu.RLock()
	subs := make([]*feedSubscription, len(f.subs[msg.ReceiverID]))
	copy(subs, f.subs[msg.ReceiverID])
	f.mu.RUnlock()

	for _, sub := range subs {
		sub.deliver(msg)
	}
}

type feedSubscription struct {
	mu      sync.RWMutex
	stopped bool
	fn      func(messaging.Message)
}

func (s *feedSubscription) deliver(msg messaging.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return
	}
	s.fn(msg)
}

// stop waits for in-flight deliveries before returning.
func (s *feedSubscription) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func timestampToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var _ messaging.Feed = (*Feed)(nil)
var _ MessageHandler = (*Feed)(nil)
