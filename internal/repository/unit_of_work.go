package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// Option customises the session behind a unit of work.
type Option func(*Session)

// WithLogger sets the logger used for flush and transaction diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithQueryObserver reports SaveChanges durations to the observer.
func WithQueryObserver(observer QueryObserver) Option {
	return func(s *Session) {
		s.observer = observer
	}
}

// UnitOfWork coordinates the repositories of one logical operation so their
// staged changes commit together. Use one instance per request and Close it.
type UnitOfWork struct {
	session     *Session
	students    *StudentRepository
	instructors *InstructorRepository
	courses     *CourseRepository
	enrollments *EnrollmentRepository
}

// NewUnitOfWork opens a unit of work over a fresh session.
func NewUnitOfWork(db *sqlx.DB, opts ...Option) *UnitOfWork {
	s := newSession(db)
	for _, opt := range opts {
		opt(s)
	}
	return &UnitOfWork{
		session:     s,
		students:    newStudentRepository(s),
		instructors: newInstructorRepository(s),
		courses:     newCourseRepository(s),
		enrollments: newEnrollmentRepository(s),
	}
}

func (u *UnitOfWork) Students() *StudentRepository       { return u.students }
func (u *UnitOfWork) Instructors() *InstructorRepository { return u.instructors }
func (u *UnitOfWork) Courses() *CourseRepository         { return u.courses }
func (u *UnitOfWork) Enrollments() *EnrollmentRepository { return u.enrollments }

// SaveChanges atomically applies all staged changes and returns how many were applied.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	return u.session.SaveChanges(ctx)
}

// BeginTransaction opens an explicit transaction for workflows that save more than once.
func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	return u.session.Begin(ctx)
}

// CommitTransaction commits the explicit transaction.
func (u *UnitOfWork) CommitTransaction() error {
	return u.session.Commit()
}

// RollbackTransaction aborts the explicit transaction.
func (u *UnitOfWork) RollbackTransaction() error {
	return u.session.Rollback()
}

// Close disposes the unit of work. An uncommitted transaction is rolled back.
func (u *UnitOfWork) Close() error {
	return u.session.Close()
}

// Events returns the domain events of durable changes for publication and forgets them.
// They are also in the outbox table, written in the same transaction as the changes.
func (u *UnitOfWork) Events() []models.EventEnvelope {
	return u.session.DrainEvents()
}

// Factory opens units of work that share a connection pool and options.
type Factory struct {
	db   *sqlx.DB
	opts []Option
}

// NewFactory constructs a Factory.
func NewFactory(db *sqlx.DB, opts ...Option) *Factory {
	return &Factory{db: db, opts: opts}
}

// New opens a unit of work.
func (f *Factory) New() *UnitOfWork {
	return NewUnitOfWork(f.db, f.opts...)
}
