package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // registers the postgres dialect
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// Persistence errors raised by the session itself. Driver errors are returned unchanged.
var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: row was modified or removed")
	ErrUnitOfWorkClosed    = errors.New("unit of work is closed")
	ErrTransactionActive   = errors.New("transaction already active")
	ErrNoTransaction       = errors.New("no active transaction")
)

const (
	colID             = "id"
	tableOutboxEvents = "outbox_events"
	savepointName     = "save_changes"
)

var dialect = goqu.Dialect("postgres")

// QueryObserver receives timings for persistence operations.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

type changeKind int

const (
	changeInsert changeKind = iota
	changeUpdate
	changeDelete
)

func (k changeKind) String() string {
	switch k {
	case changeInsert:
		return "insert"
	case changeUpdate:
		return "update"
	default:
		return "delete"
	}
}

// tableInfo describes where an entity type is stored. Rank orders foreign key
// dependencies: lower ranks are inserted first and deleted last.
type tableInfo struct {
	name      string
	aggregate string
	rank      int
}

type stagedChange struct {
	kind   changeKind
	table  tableInfo
	entity models.Entity
	record func() goqu.Record
}

// Session tracks staged changes for one unit of work and flushes them atomically.
// It is not safe for concurrent use.
type Session struct {
	db       *sqlx.DB
	tx       *sqlx.Tx
	staged   []*stagedChange
	closed   bool
	logger   *zap.Logger
	observer QueryObserver
	newID    func() string

	// inTx holds events flushed inside an explicit transaction that has not committed yet.
	inTx      []models.EventEnvelope
	committed []models.EventEnvelope
	// assignedInTx lost their ids again if the explicit transaction does not commit.
	assignedInTx []models.Entity
}

func newSession(db *sqlx.DB) *Session {
	return &Session{db: db, logger: zap.NewNop(), newID: uuid.NewString}
}

func (s *Session) querier() sqlx.QueryerContext {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Session) selectInto(ctx context.Context, dest interface{}, ds *goqu.SelectDataset) error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.SelectContext(ctx, s.querier(), dest, query, args...)
}

func (s *Session) getInto(ctx context.Context, dest interface{}, ds *goqu.SelectDataset) error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return sqlx.GetContext(ctx, s.querier(), dest, query, args...)
}

// stage records a change, folding it into any change already tracked for the same entity.
func (s *Session) stage(kind changeKind, table tableInfo, entity models.Entity, record func() goqu.Record) {
	for i, existing := range s.staged {
		if existing.entity != entity {
			continue
		}
		switch {
		case existing.kind == changeInsert && kind == changeDelete:
			// never persisted, nothing to remove
			s.staged = append(s.staged[:i], s.staged[i+1:]...)
		case existing.kind == changeUpdate && kind == changeDelete:
			existing.kind = changeDelete
		}
		return
	}
	s.staged = append(s.staged, &stagedChange{kind: kind, table: table, entity: entity, record: record})
}

// stagedByID returns the latest change tracked for the row, if any.
func (s *Session) stagedByID(table, id string) *stagedChange {
	if id == "" {
		return nil
	}
	for i := len(s.staged) - 1; i >= 0; i-- {
		c := s.staged[i]
		if c.table.name == table && c.entity.ID() == id {
			return c
		}
	}
	return nil
}

func (s *Session) stagedFor(table string) []*stagedChange {
	var out []*stagedChange
	for _, c := range s.staged {
		if c.table.name == table {
			out = append(out, c)
		}
	}
	return out
}

// SaveChanges flushes every staged change in one transaction, or in a savepoint
// of the explicit transaction when one is open. On failure nothing is applied,
// staged changes are kept and the store error is returned as is.
func (s *Session) SaveChanges(ctx context.Context) (int, error) {
	if s.closed {
		return 0, ErrUnitOfWorkClosed
	}
	if len(s.staged) == 0 {
		return 0, nil
	}

	changes := orderChanges(s.staged)
	assigned := s.assignIDs(changes)

	envelopes, err := s.collectEvents(changes)
	if err != nil {
		unassign(assigned)
		return 0, err
	}

	start := time.Now()
	if s.tx != nil {
		err = s.flushInSavepoint(ctx, changes, envelopes)
	} else {
		err = s.flushInTransaction(ctx, changes, envelopes)
	}
	if s.observer != nil {
		s.observer.ObserveDBQuery("save_changes", time.Since(start))
	}
	if err != nil {
		unassign(assigned)
		s.logger.Warn("save changes failed", zap.Int("changes", len(changes)), zap.Error(err))
		return 0, err
	}

	for _, c := range changes {
		c.entity.ClearEvents()
	}
	s.staged = nil
	if s.tx != nil {
		s.inTx = append(s.inTx, envelopes...)
		s.assignedInTx = append(s.assignedInTx, assigned...)
	} else {
		s.committed = append(s.committed, envelopes...)
	}
	s.logger.Debug("changes saved", zap.Int("changes", len(changes)), zap.Int("events", len(envelopes)))
	return len(changes), nil
}

func (s *Session) flushInTransaction(ctx context.Context, changes []*stagedChange, envelopes []models.EventEnvelope) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = apply(ctx, tx, changes, envelopes); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Session) flushInSavepoint(ctx context.Context, changes []*stagedChange, envelopes []models.EventEnvelope) error {
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+savepointName); err != nil {
		return err
	}
	if err := apply(ctx, s.tx, changes, envelopes); err != nil {
		if _, rbErr := s.tx.ExecContext(context.WithoutCancel(ctx), "ROLLBACK TO SAVEPOINT "+savepointName); rbErr != nil {
			s.logger.Error("rollback to savepoint failed", zap.Error(rbErr))
		}
		return err
	}
	_, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName)
	return err
}

func apply(ctx context.Context, exec sqlx.ExecerContext, changes []*stagedChange, envelopes []models.EventEnvelope) error {
	for _, c := range changes {
		query, args, err := buildStatement(c)
		if err != nil {
			return fmt.Errorf("build %s %s: %w", c.kind, c.table.name, err)
		}
		res, err := exec.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if c.kind == changeInsert {
			continue
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrConcurrencyConflict
		}
	}

	if len(envelopes) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(envelopes))
	for _, env := range envelopes {
		rows = append(rows, goqu.Record{
			"id":             env.ID,
			"aggregate_type": env.AggregateType,
			"aggregate_id":   env.AggregateID,
			"event_name":     env.Name,
			"payload":        string(env.Payload),
			"occurred_at":    env.OccurredAt,
		})
	}
	query, args, err := dialect.Insert(tableOutboxEvents).Rows(rows...).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build outbox insert: %w", err)
	}
	_, err = exec.ExecContext(ctx, query, args...)
	return err
}

func buildStatement(c *stagedChange) (string, []interface{}, error) {
	id := c.entity.ID()
	switch c.kind {
	case changeInsert:
		record := c.record()
		record[colID] = id
		return dialect.Insert(c.table.name).Rows(record).Prepared(true).ToSQL()
	case changeUpdate:
		record := c.record()
		delete(record, colID)
		return dialect.Update(c.table.name).Set(record).Where(goqu.C(colID).Eq(id)).Prepared(true).ToSQL()
	default:
		return dialect.Delete(c.table.name).Where(goqu.C(colID).Eq(id)).Prepared(true).ToSQL()
	}
}

// orderChanges puts inserts first (parents before children), then updates in
// staging order, then deletes (children before parents).
func orderChanges(staged []*stagedChange) []*stagedChange {
	out := make([]*stagedChange, len(staged))
	copy(out, staged)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		switch a.kind {
		case changeInsert:
			return a.table.rank < b.table.rank
		case changeDelete:
			return a.table.rank > b.table.rank
		default:
			return false
		}
	})
	return out
}

func (s *Session) assignIDs(changes []*stagedChange) []models.Entity {
	var assigned []models.Entity
	for _, c := range changes {
		if c.kind == changeInsert && c.entity.ID() == "" {
			c.entity.AssignID(s.newID())
			assigned = append(assigned, c.entity)
		}
	}
	return assigned
}

func unassign(entities []models.Entity) {
	for _, e := range entities {
		e.AssignID("")
	}
}

func (s *Session) collectEvents(changes []*stagedChange) ([]models.EventEnvelope, error) {
	var envelopes []models.EventEnvelope
	for _, c := range changes {
		for _, event := range c.entity.PendingEvents() {
			payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(event)
			if err != nil {
				return nil, fmt.Errorf("encode %s event: %w", event.EventName(), err)
			}
			envelopes = append(envelopes, models.EventEnvelope{
				ID:            s.newID(),
				AggregateType: c.table.aggregate,
				AggregateID:   c.entity.ID(),
				Name:          event.EventName(),
				Payload:       payload,
				OccurredAt:    event.OccurredOn(),
				Event:         event,
			})
		}
	}
	return envelopes, nil
}

// Begin opens an explicit transaction spanning several SaveChanges calls.
func (s *Session) Begin(ctx context.Context) error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	if s.tx != nil {
		return ErrTransactionActive
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// Commit commits the explicit transaction and releases the events flushed inside it.
func (s *Session) Commit() error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	if s.tx == nil {
		return ErrNoTransaction
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		s.discardTx()
		return err
	}
	s.committed = append(s.committed, s.inTx...)
	s.inTx = nil
	s.assignedInTx = nil
	return nil
}

// Rollback aborts the explicit transaction. Events flushed inside it are discarded.
func (s *Session) Rollback() error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	if s.tx == nil {
		return ErrNoTransaction
	}
	err := s.tx.Rollback()
	s.tx = nil
	s.discardTx()
	return err
}

// discardTx forgets events and ids produced by flushes of a transaction that did not commit.
func (s *Session) discardTx() {
	unassign(s.assignedInTx)
	s.assignedInTx = nil
	s.inTx = nil
}

// Close discards staged changes and rolls back an open transaction. It never commits.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.staged = nil
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	s.discardTx()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.logger.Warn("rollback on close failed", zap.Error(err))
		return err
	}
	s.logger.Debug("open transaction rolled back on close")
	return nil
}

// DrainEvents returns events whose changes are durable and forgets them.
func (s *Session) DrainEvents() []models.EventEnvelope {
	out := s.committed
	s.committed = nil
	return out
}
