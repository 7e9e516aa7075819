package service

import (
	"regexp"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
)

func newFactoryMock(t *testing.T) (*repository.Factory, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return repository.NewFactory(sqlx.NewDb(db, "sqlmock")), mock
}

func sqlPrefix(prefix string) string {
	return "^" + regexp.QuoteMeta(prefix)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.EventEnvelope
}

func (n *recordingNotifier) Notify(events []models.EventEnvelope) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Name)
	}
	return out
}
