package repository

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// publishedEvent is the message body sent to subscribers.
type publishedEvent struct {
	ID            string              `json:"id"`
	AggregateType string              `json:"aggregate_type"`
	AggregateID   string              `json:"aggregate_id"`
	EventName     string              `json:"event_name"`
	OccurredAt    time.Time           `json:"occurred_at"`
	Payload       jsoniter.RawMessage `json:"payload"`
}

// RedisEventPublisher publishes outbox events on a Redis pub/sub channel.
type RedisEventPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisEventPublisher constructs a publisher.
func NewRedisEventPublisher(client *redis.Client, channel string, logger *zap.Logger) *RedisEventPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisEventPublisher{client: client, channel: channel, logger: logger}
}

// Publish sends one event. Events are published on the configured channel and
// on a per-event channel suffixed with the event name.
func (p *RedisEventPublisher) Publish(ctx context.Context, event models.EventEnvelope) error {
	if p.client == nil {
		return nil
	}
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(publishedEvent{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventName:     event.Name,
		OccurredAt:    event.OccurredAt,
		Payload:       jsoniter.RawMessage(event.Payload),
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.Publish(ctx, p.channel, body)
	pipe.Publish(ctx, p.channel+"."+event.Name, body)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %s: %w", event.ID, err)
	}
	p.logger.Debug("event published", zap.String("event_id", event.ID), zap.String("event", event.Name))
	return nil
}

// Close releases the underlying Redis connection if present.
func (p *RedisEventPublisher) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
