package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// UnitOfWorkFactory opens one unit of work per application operation.
type UnitOfWorkFactory interface {
	New() *repository.UnitOfWork
}

// EventNotifier is told about domain events once their changes are durable.
type EventNotifier interface {
	Notify(events []models.EventEnvelope)
}

// commit saves the unit of work and hands its durable events to the notifier.
func commit(ctx context.Context, uow *repository.UnitOfWork, notifier EventNotifier) error {
	if _, err := uow.SaveChanges(ctx); err != nil {
		return err
	}
	if events := uow.Events(); len(events) > 0 && notifier != nil {
		notifier.Notify(events)
	}
	return nil
}

func closeUnitOfWork(uow *repository.UnitOfWork, logger *zap.Logger) {
	if err := uow.Close(); err != nil {
		logger.Warn("close unit of work", zap.Error(err))
	}
}

// translateError maps persistence failures onto application errors.
// Errors that are already application errors pass through.
func translateError(err error, resource, action string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	var pqErr *pq.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", resource))
	case errors.Is(err, repository.ErrConcurrencyConflict):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("%s was modified concurrently", resource))
	case errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation:
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("%s already exists", resource))
	case errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation:
		return appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, fmt.Sprintf("%s is still referenced", resource))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to %s %s", action, resource))
}

// validationError wraps validator failures, listing each offending field.
func validationError(err error, message string) error {
	wrapped := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			wrapped.Details = append(wrapped.Details, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	}
	return wrapped
}

func sortBy[T any](items []T, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}
