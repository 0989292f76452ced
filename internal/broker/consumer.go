package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"user-events/internal/config"
	"user-events/internal/event"
	"user-events/pkg/logger"
)

// Consumer reads the topic in a consumer group and feeds the recent-event
// store. Offsets are auto-committed, so a crash between appending to the
// store and the next commit can replay a record; the store tolerates the
// resulting duplicate entry.
type Consumer struct {
	client  *kgo.Client
	store   EventStore
	archive Archive
	metrics *Metrics
	topic   string
	log     *zap.SugaredLogger
}

func NewConsumer(cfg *config.Config, store EventStore, archive Archive, metrics *Metrics) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("create consumer client: %w", err)
	}

	return &Consumer{
		client:  client,
		store:   store,
		archive: archive,
		metrics: metrics,
		topic:   cfg.Topic,
		log:     logger.Get().With("component", "consumer"),
	}, nil
}

// Run polls the topic until ctx is canceled. No record-level or
// fetch-level error terminates the loop: malformed records are skipped and
// transient broker errors are logged and retried on the next poll.
func (c *Consumer) Run(ctx context.Context) {
	c.log.Infow("consumer started", "topic", c.topic)

	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil || fetches.IsClientClosed() {
			c.log.Info("consumer stopping")
			return
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.metrics.IncConsumeErrors()
			c.log.Errorw("consume error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		fetches.EachRecord(func(rec *kgo.Record) {
			c.handleRecord(ctx, rec)
		})
	}
}

// handleRecord decodes one record and applies it. In-flight processing is
// allowed to finish during shutdown, so ctx only bounds the archive write.
func (c *Consumer) handleRecord(ctx context.Context, rec *kgo.Record) {
	ev, err := event.Decode(rec.Value)
	if err != nil {
		c.metrics.IncSkipped()
		c.log.Warnw("skipping malformed record",
			"partition", rec.Partition,
			"offset", rec.Offset,
			"error", err,
		)
		return
	}

	c.store.Append(ev)
	c.metrics.IncConsumed()
	c.log.Infow("event consumed",
		"partition", rec.Partition,
		"offset", rec.Offset,
		"user_id", ev.UserID,
		"type", ev.Type,
	)

	if c.archive != nil {
		if err := c.archive.Store(ctx, ev); err != nil {
			c.log.Warnw("archive write failed",
				"user_id", ev.UserID,
				"type", ev.Type,
				"error", err,
			)
		}
	}
}

// Close leaves the group and releases the session. Pending auto-commits
// are flushed as part of leaving.
func (c *Consumer) Close() {
	c.client.Close()
	c.log.Info("consumer closed")
}
