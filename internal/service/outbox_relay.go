package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/jobs"
)

type outboxStore interface {
	ListUnpublished(ctx context.Context, limit int) ([]models.EventEnvelope, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

// EventPublisher delivers an outbox event to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.EventEnvelope) error
}

// OutboxRelayConfig tunes polling and delivery.
type OutboxRelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
}

// OutboxRelay moves committed outbox rows to the event publisher. Delivery is
// at least once: a row is marked published only after the publisher accepted it.
type OutboxRelay struct {
	store     outboxStore
	publisher EventPublisher
	metrics   *MetricsService
	queue     *jobs.Queue[models.EventEnvelope]
	interval  time.Duration
	batchSize int
	logger    *zap.Logger

	wake     chan struct{}
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewOutboxRelay constructs the relay and its worker queue.
func NewOutboxRelay(store outboxStore, publisher EventPublisher, metrics *MetricsService, cfg OutboxRelayConfig, logger *zap.Logger) *OutboxRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	r := &OutboxRelay{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		interval:  cfg.PollInterval,
		batchSize: cfg.BatchSize,
		logger:    logger,
		wake:      make(chan struct{}, 1),
		inflight:  make(map[string]struct{}),
	}
	r.queue = jobs.NewQueue("outbox", r.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BatchSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	r.queue.OnGiveUp(func(job jobs.Job[models.EventEnvelope], err error) {
		// left unpublished; a later poll picks it up again
		r.release(job.Payload.ID)
	})
	return r
}

// Notify wakes the relay so freshly committed events go out without waiting for the next tick.
func (r *OutboxRelay) Notify(events []models.EventEnvelope) {
	if r == nil || len(events) == 0 {
		return
	}
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run polls the outbox until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	r.queue.Start(ctx)
	defer r.queue.Stop()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.logger.Info("outbox relay started", zap.Duration("interval", r.interval), zap.Int("batch_size", r.batchSize))
	for {
		if _, err := r.Poll(ctx); err != nil && ctx.Err() == nil {
			r.logger.Warn("outbox poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
		case <-r.wake:
		}
	}
}

// Poll enqueues one batch of unpublished events and returns how many were enqueued.
// Events already on their way are skipped. The queue must be running.
func (r *OutboxRelay) Poll(ctx context.Context) (int, error) {
	events, err := r.store.ListUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	enqueued := 0
	for _, event := range events {
		if !r.claim(event.ID) {
			continue
		}
		if err := r.queue.Enqueue(jobs.Job[models.EventEnvelope]{ID: event.ID, Payload: event}); err != nil {
			r.release(event.ID)
			return enqueued, fmt.Errorf("enqueue outbox event %s: %w", event.ID, err)
		}
		enqueued++
	}
	return enqueued, nil
}

func (r *OutboxRelay) handle(ctx context.Context, job jobs.Job[models.EventEnvelope]) error {
	event := job.Payload
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.metrics.RecordOutboxEvent(event.Name, false)
		return err
	}
	if err := r.store.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
		return err
	}
	r.metrics.RecordOutboxEvent(event.Name, true)
	r.release(event.ID)
	return nil
}

func (r *OutboxRelay) claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inflight[id]; busy {
		return false
	}
	r.inflight[id] = struct{}{}
	return true
}

func (r *OutboxRelay) release(id string) {
	r.mu.Lock()
	delete(r.inflight, id)
	r.mu.Unlock()
}
