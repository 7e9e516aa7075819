package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

type fakeOutboxStore struct {
	mu        sync.Mutex
	pending   []models.EventEnvelope
	published map[string]time.Time
	listed    int
}

func (f *fakeOutboxStore) ListUnpublished(ctx context.Context, limit int) ([]models.EventEnvelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listed++
	var out []models.EventEnvelope
	for _, e := range f.pending {
		if _, done := f.published[e.ID]; !done && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeOutboxStore) MarkPublished(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.published == nil {
		f.published = map[string]time.Time{}
	}
	f.published[id] = at
	return nil
}

func (f *fakeOutboxStore) isPublished(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.published[id]
	return ok
}

func (f *fakeOutboxStore) add(e models.EventEnvelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, e)
}

type fakePublisher struct {
	mu    sync.Mutex
	fail  bool
	sent  []string
	calls int
}

func (p *fakePublisher) Publish(ctx context.Context, event models.EventEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail {
		return errors.New("redis unavailable")
	}
	p.sent = append(p.sent, event.ID)
	return nil
}

func (p *fakePublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestOutboxRelayPublishesAndMarks(t *testing.T) {
	store := &fakeOutboxStore{pending: []models.EventEnvelope{
		{ID: "evt-1", Name: models.EventStudentRegistered},
		{ID: "evt-2", Name: models.EventStudentEnrolled},
	}}
	publisher := &fakePublisher{}
	metrics := NewMetricsService()
	relay := NewOutboxRelay(store, publisher, metrics, OutboxRelayConfig{PollInterval: time.Hour, Workers: 2}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Run(ctx)

	require.Eventually(t, func() bool {
		return store.isPublished("evt-1") && store.isPublished("evt-2")
	}, 2*time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 2, metrics.Snapshot().OutboxPublished)
}

func TestOutboxRelayNotifyTriggersPoll(t *testing.T) {
	store := &fakeOutboxStore{}
	relay := NewOutboxRelay(store, &fakePublisher{}, nil, OutboxRelayConfig{PollInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Run(ctx)

	store.add(models.EventEnvelope{ID: "evt-9", Name: models.EventCourseCreated})
	require.Eventually(t, func() bool {
		relay.Notify([]models.EventEnvelope{{ID: "evt-9"}})
		return store.isPublished("evt-9")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestOutboxRelayLeavesFailedEventsUnpublished(t *testing.T) {
	store := &fakeOutboxStore{pending: []models.EventEnvelope{{ID: "evt-1", Name: models.EventStudentRegistered}}}
	publisher := &fakePublisher{fail: true}
	metrics := NewMetricsService()
	relay := NewOutboxRelay(store, publisher, metrics, OutboxRelayConfig{
		PollInterval: time.Hour,
		MaxRetries:   1,
		RetryDelay:   time.Millisecond,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Run(ctx)

	require.Eventually(t, func() bool { return publisher.callCount() == 2 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		relay.mu.Lock()
		defer relay.mu.Unlock()
		return len(relay.inflight) == 0
	}, time.Second, 5*time.Millisecond)
	assert.False(t, store.isPublished("evt-1"))
	assert.EqualValues(t, 2, metrics.Snapshot().OutboxFailed)
}
