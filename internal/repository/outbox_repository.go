package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

const maxOutboxBatch = 500

// OutboxRepository reads and acknowledges rows written to the outbox by SaveChanges.
type OutboxRepository struct {
	db *sqlx.DB
}

// NewOutboxRepository constructs the repository.
func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// ListUnpublished returns the oldest events that have not been published yet.
func (r *OutboxRepository) ListUnpublished(ctx context.Context, limit int) ([]models.EventEnvelope, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxOutboxBatch {
		limit = maxOutboxBatch
	}
	query, args, err := dialect.From(tableOutboxEvents).
		Select("id", "aggregate_type", "aggregate_id", "event_name", "payload", "occurred_at").
		Where(goqu.C("published_at").IsNull()).
		Order(goqu.C("occurred_at").Asc(), goqu.C("id").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build outbox query: %w", err)
	}
	var events []models.EventEnvelope
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list outbox events: %w", err)
	}
	return events, nil
}

// MarkPublished stamps the event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	query, args, err := dialect.Update(tableOutboxEvents).
		Set(goqu.Record{"published_at": at}).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build outbox update: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark outbox event published: %w", err)
	}
	return nil
}
