package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOutboxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestOutboxRepositoryListUnpublished(t *testing.T) {
	db, mock, cleanup := newOutboxMock(t)
	defer cleanup()
	repo := NewOutboxRepository(db)

	rows := sqlmock.NewRows([]string{"id", "aggregate_type", "aggregate_id", "event_name", "payload", "occurred_at"}).
		AddRow("evt-1", "enrollment", "enr-1", "enrollment.created", []byte(`{"student_id":"stu-1"}`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "outbox_events" WHERE ("published_at" IS NULL) ORDER BY "occurred_at" ASC, "id" ASC LIMIT 25`)).
		WillReturnRows(rows)

	events, err := repo.ListUnpublished(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "enrollment.created", events[0].Name)
	assert.JSONEq(t, `{"student_id":"stu-1"}`, string(events[0].Payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepositoryMarkPublished(t *testing.T) {
	db, mock, cleanup := newOutboxMock(t)
	defer cleanup()
	repo := NewOutboxRepository(db)
	at := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "outbox_events" SET "published_at"=$1 WHERE ("id" = $2)`)).
		WithArgs(at, "evt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkPublished(context.Background(), "evt-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepositoryListUnpublishedCapsBatch(t *testing.T) {
	db, mock, cleanup := newOutboxMock(t)
	defer cleanup()
	repo := NewOutboxRepository(db)
	columns := []string{"id", "aggregate_type", "aggregate_id", "event_name", "payload", "occurred_at"}

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY "occurred_at" ASC, "id" ASC LIMIT 500`)).
		WillReturnRows(sqlmock.NewRows(columns))
	_, err := repo.ListUnpublished(context.Background(), 1000)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY "occurred_at" ASC, "id" ASC LIMIT 100`)).
		WillReturnRows(sqlmock.NewRows(columns))
	_, err = repo.ListUnpublished(context.Background(), 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
