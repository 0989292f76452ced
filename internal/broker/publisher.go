package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"user-events/internal/config"
	"user-events/internal/event"
	"user-events/pkg/logger"
)

// ErrCanceled marks a publish abandoned by the caller, so the HTTP layer
// can report a client abort instead of a server fault.
var ErrCanceled = errors.New("publish canceled by caller")

// Ack reports where a record landed.
type Ack struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Publisher owns the produce side of the topic for the process lifetime.
// The client produces idempotently and waits for acknowledgment from all
// in-sync replicas, so a successful Publish means the record is durable.
type Publisher struct {
	client  *kgo.Client
	topic   string
	metrics *Metrics
}

func NewPublisher(cfg *config.Config, metrics *Metrics) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(cfg.PublishTimeout),
		kgo.ProducerLinger(5*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("create producer client: %w", err)
	}

	logger.Get().Infow("publisher initialized",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"delivery_timeout_ms", cfg.PublishTimeout.Milliseconds(),
	)
	return &Publisher{client: client, topic: cfg.Topic, metrics: metrics}, nil
}

// Publish serializes the event and appends it to the topic, blocking until
// the broker acknowledges it, the context is canceled, or the delivery
// timeout expires. Retrying is left to the external caller.
func (p *Publisher) Publish(ctx context.Context, ev event.UserEvent) (Ack, error) {
	payload, err := ev.Encode()
	if err != nil {
		p.metrics.IncPublishFailed()
		return Ack{}, fmt.Errorf("encode event: %w", err)
	}

	res := p.client.ProduceSync(ctx, &kgo.Record{Value: payload})
	if err := res.FirstErr(); err != nil {
		if errors.Is(err, context.Canceled) {
			return Ack{}, ErrCanceled
		}
		p.metrics.IncPublishFailed()
		return Ack{}, fmt.Errorf("produce to %s: %w", p.topic, err)
	}

	rec, _ := res.First()
	p.metrics.IncPublished()
	logger.Get().Infow("event published",
		"topic", rec.Topic,
		"partition", rec.Partition,
		"offset", rec.Offset,
		"user_id", ev.UserID,
		"type", ev.Type,
	)
	return Ack{Topic: rec.Topic, Partition: rec.Partition, Offset: rec.Offset}, nil
}

// Close drains in-flight sends within the context deadline, then releases
// the client. Called exactly once during shutdown.
func (p *Publisher) Close(ctx context.Context) {
	log := logger.Get()
	if err := p.client.Flush(ctx); err != nil {
		log.Warnw("publisher flush incomplete", "error", err)
	}
	p.client.Close()
	log.Info("publisher closed")
}
