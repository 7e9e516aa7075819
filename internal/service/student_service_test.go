package service

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type mockStudentChecker struct {
	valid    bool
	messages []string
	err      error
	calls    int
}

func (m *mockStudentChecker) Validate(ctx context.Context, name, email string) (bool, []string, error) {
	m.calls++
	return m.valid, m.messages, m.err
}

var studentColumns = []string{"id", "name", "email"}

func TestStudentServiceCreate(t *testing.T) {
	factory, mock := newFactoryMock(t)
	checker := &mockStudentChecker{valid: true}
	notifier := &recordingNotifier{}
	svc := NewStudentService(factory, checker, notifier, nil, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec(sqlPrefix(`INSERT INTO "students"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(sqlPrefix(`INSERT INTO "outbox_events"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resp, err := svc.Create(context.Background(), dto.StudentRequest{Name: " Ada Lovelace ", Email: "Ada@Example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "Ada Lovelace", resp.Name)
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.Equal(t, 1, checker.calls)
	assert.Equal(t, []string{models.EventStudentRegistered}, notifier.names())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceCreateRejectedByRegistry(t *testing.T) {
	factory, mock := newFactoryMock(t)
	checker := &mockStudentChecker{valid: false, messages: []string{"email domain not allowed"}}
	svc := NewStudentService(factory, checker, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.StudentRequest{Name: "Ada", Email: "ada@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, []string{"email domain not allowed"}, appErrors.FromError(err).Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceCreateRegistryUnavailable(t *testing.T) {
	factory, _ := newFactoryMock(t)
	svc := NewStudentService(factory, &mockStudentChecker{err: errors.New("timeout")}, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.StudentRequest{Name: "Ada", Email: "ada@example.com"})
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestStudentServiceCreateInvalidPayload(t *testing.T) {
	factory, _ := newFactoryMock(t)
	svc := NewStudentService(factory, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.StudentRequest{Name: "Ada", Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.NotEmpty(t, appErrors.FromError(err).Details)
}

func TestStudentServiceCreateDuplicateEmail(t *testing.T) {
	factory, mock := newFactoryMock(t)
	svc := NewStudentService(factory, nil, nil, nil, nil)

	mock.ExpectBegin()
	mock.ExpectExec(sqlPrefix(`INSERT INTO "students"`)).WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), dto.StudentRequest{Name: "Ada", Email: "ada@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceGetNotFound(t *testing.T) {
	factory, mock := newFactoryMock(t)
	svc := NewStudentService(factory, nil, nil, nil, nil)

	mock.ExpectQuery(sqlPrefix(`SELECT "id", "name", "email" FROM "students"`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(studentColumns))

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceUpdateConcurrencyConflict(t *testing.T) {
	factory, mock := newFactoryMock(t)
	svc := NewStudentService(factory, nil, nil, nil, nil)

	mock.ExpectQuery(sqlPrefix(`SELECT "id", "name", "email" FROM "students"`)).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows(studentColumns).AddRow("stu-1", "Ada", "ada@example.com"))
	mock.ExpectBegin()
	mock.ExpectExec(sqlPrefix(`UPDATE "students"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), "stu-1", dto.StudentRequest{Name: "Ada King", Email: "ada@example.com"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceListSortsByName(t *testing.T) {
	factory, mock := newFactoryMock(t)
	svc := NewStudentService(factory, nil, nil, nil, nil)

	mock.ExpectQuery(sqlPrefix(`SELECT "id", "name", "email" FROM "students"`)).
		WillReturnRows(sqlmock.NewRows(studentColumns).
			AddRow("stu-2", "Grace", "grace@example.com").
			AddRow("stu-1", "Ada", "ada@example.com"))

	students, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ada", students[0].Name)
	assert.Equal(t, "Grace", students[1].Name)
}

func TestStudentServiceDeleteMapsForeignKeyViolation(t *testing.T) {
	factory, mock := newFactoryMock(t)
	svc := NewStudentService(factory, nil, nil, nil, nil)

	mock.ExpectQuery(sqlPrefix(`SELECT "id", "name", "email" FROM "students"`)).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows(studentColumns).AddRow("stu-1", "Ada", "ada@example.com"))
	mock.ExpectBegin()
	mock.ExpectExec(sqlPrefix(`DELETE FROM "students"`)).WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), "stu-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceTranscriptCSV(t *testing.T) {
	factory, mock := newFactoryMock(t)
	svc := NewStudentService(factory, nil, nil, nil, nil)

	enrolled := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(sqlPrefix(`SELECT "id", "name", "email" FROM "students"`)).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows(studentColumns).AddRow("stu-1", "Ada Lovelace", "ada@example.com"))
	mock.ExpectQuery(sqlPrefix(`SELECT "id", "student_id", "course_id", "enrolled_on", "grade" FROM "enrollments"`)).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows(enrollmentColumns).
			AddRow("enr-1", "stu-1", "crs-1", enrolled, 91.5).
			AddRow("enr-2", "stu-1", "crs-2", enrolled.AddDate(0, 1, 0), nil))
	mock.ExpectQuery(sqlPrefix(`SELECT "id", "title" FROM "courses" WHERE ("id" IN ($1, $2))`)).
		WithArgs("crs-1", "crs-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
			AddRow("crs-1", "Algorithms").
			AddRow("crs-2", "Compilers"))

	file, err := svc.Transcript(context.Background(), "stu-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "transcript-stu-1.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Equal(t, "Course,Enrolled On,Grade\nAlgorithms,2026-02-03,91.5\nCompilers,2026-03-03,\n", string(file.Content))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentServiceTranscriptRejectsFormat(t *testing.T) {
	factory, mock := newFactoryMock(t)
	svc := NewStudentService(factory, nil, nil, nil, nil)

	_, err := svc.Transcript(context.Background(), "stu-1", "docx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidArgument))
	assert.NoError(t, mock.ExpectationsWereMet())
}
