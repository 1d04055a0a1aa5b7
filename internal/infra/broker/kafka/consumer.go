package kafka

import (
	"context"
	"log/slog"

	"github.com/IBM/sarama"
)

// MessageHandler applies one consumed record. The feed is a hint channel and
// sessions re-fetch authoritative state, so a failed record is logged and
// skipped rather than retried.
type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer runs a consumer group loop delivering message events to a handler.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
		// Events older than this process are useless to in-process
		// subscribers; sessions load full state on creation anyway.
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Version = sarama.V2_5_0_0
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: group, handler: handler, logger: logger}, nil
}

// Run blocks until ctx is cancelled, rejoining the group after rebalances.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	for {
		if err := c.group.Consume(ctx, topics, feedClaimRunner{handler: c.handler, logger: c.logger}); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.logger != nil {
			c.logger.Debug("consumer group rebalanced", "topics", topics)
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type feedClaimRunner struct {
	handler MessageHandler
	logger  *slog.Logger
}

func (r feedClaimRunner) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (r feedClaimRunner) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (r feedClaimRunner) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for record := range claim.Messages() {
		if err := r.handler.Handle(sess.Context(), record); err != nil {
			// Mark anyway: a skipped event only delays a refresh, while an
			// unmarked offset would redeliver the same record forever.
			if r.logger != nil {
				r.logger.Warn("message event not applied",
					"topic", record.Topic, "partition", record.Partition, "offset", record.Offset, "error", err)
			}
		}
		sess.MarkMessage(record, "")
	}
	return nil
}
