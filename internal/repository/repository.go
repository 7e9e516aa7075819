package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// rowOf is implemented by the scan targets of each table.
type rowOf[T any] interface {
	toEntity() T
}

// loadRows runs a select and converts every scanned row into its entity.
func loadRows[R rowOf[T], T models.Entity](ctx context.Context, s *Session, ds *goqu.SelectDataset) ([]T, error) {
	var rows []R
	if err := s.selectInto(ctx, &rows, ds); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// mapping binds an entity type to its table.
type mapping[T models.Entity] struct {
	table    tableInfo
	columns  []interface{}
	toRecord func(T) goqu.Record
	load     func(ctx context.Context, s *Session, ds *goqu.SelectDataset) ([]T, error)
}

// Repository provides CRUD over one entity type. Writes are staged in the
// session and reach the database only when the owning unit of work saves.
type Repository[T models.Entity] struct {
	session *Session
	mapping mapping[T]
}

func newRepository[T models.Entity](s *Session, m mapping[T]) *Repository[T] {
	return &Repository[T]{session: s, mapping: m}
}

func (r *Repository[T]) selectAll() *goqu.SelectDataset {
	return dialect.From(r.mapping.table.name).Select(r.mapping.columns...)
}

// GetByID returns the entity or sql.ErrNoRows when it does not exist or is staged for deletion.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	if c := r.session.stagedByID(r.mapping.table.name, id); c != nil {
		if c.kind == changeDelete {
			return zero, sql.ErrNoRows
		}
		if entity, ok := c.entity.(T); ok {
			return entity, nil
		}
	}
	items, err := r.mapping.load(ctx, r.session, r.selectAll().Where(goqu.C(colID).Eq(id)))
	if err != nil {
		return zero, fmt.Errorf("get %s: %w", r.mapping.table.aggregate, err)
	}
	if len(items) == 0 {
		return zero, sql.ErrNoRows
	}
	return items[0], nil
}

// GetAll returns every persisted entity merged with the session's staged state.
// No ordering is guaranteed.
func (r *Repository[T]) GetAll(ctx context.Context) ([]T, error) {
	items, err := r.mapping.load(ctx, r.session, r.selectAll())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.mapping.table.aggregate, err)
	}
	staged := r.session.stagedFor(r.mapping.table.name)
	if len(staged) == 0 {
		return items, nil
	}

	tracked := make(map[string]*stagedChange, len(staged))
	for _, c := range staged {
		if id := c.entity.ID(); id != "" {
			tracked[id] = c
		}
	}
	out := make([]T, 0, len(items)+len(staged))
	for _, item := range items {
		c, ok := tracked[item.ID()]
		switch {
		case !ok:
			out = append(out, item)
		case c.kind == changeDelete:
			// hidden until the delete is saved
		default:
			if entity, ok := c.entity.(T); ok {
				out = append(out, entity)
				delete(tracked, item.ID())
			}
		}
	}
	for _, c := range staged {
		if c.kind != changeInsert {
			continue
		}
		if id := c.entity.ID(); id != "" {
			if _, pending := tracked[id]; !pending {
				continue
			}
		}
		if entity, ok := c.entity.(T); ok {
			out = append(out, entity)
		}
	}
	return out, nil
}

// Add stages an insert and returns the staged entity.
func (r *Repository[T]) Add(entity T) T {
	r.session.stage(changeInsert, r.mapping.table, entity, r.recordOf(entity))
	return entity
}

// Update stages an update of every mapped column.
func (r *Repository[T]) Update(entity T) {
	r.session.stage(changeUpdate, r.mapping.table, entity, r.recordOf(entity))
}

// Delete stages a removal.
func (r *Repository[T]) Delete(entity T) {
	r.session.stage(changeDelete, r.mapping.table, entity, nil)
}

// Exists reports whether the entity is persisted or staged for insertion.
func (r *Repository[T]) Exists(ctx context.Context, id string) (bool, error) {
	if c := r.session.stagedByID(r.mapping.table.name, id); c != nil {
		return c.kind != changeDelete, nil
	}
	var count int
	ds := dialect.From(r.mapping.table.name).Select(goqu.COUNT(goqu.Star())).Where(goqu.C(colID).Eq(id))
	if err := r.session.getInto(ctx, &count, ds); err != nil {
		return false, fmt.Errorf("check %s exists: %w", r.mapping.table.aggregate, err)
	}
	return count > 0, nil
}

// recordOf defers column extraction to flush time so later mutations are saved.
func (r *Repository[T]) recordOf(entity T) func() goqu.Record {
	return func() goqu.Record { return r.mapping.toRecord(entity) }
}
