package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
)

// EnrollmentService orchestrates enrollment workflows.
type EnrollmentService struct {
	uows      UnitOfWorkFactory
	notifier  EventNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(uows UnitOfWorkFactory, notifier EventNotifier, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{uows: uows, notifier: notifier, validator: validate, logger: logger}
}

// List returns enrollments, optionally narrowed to one student or course, oldest first.
func (s *EnrollmentService) List(ctx context.Context, filter dto.EnrollmentFilter) ([]dto.EnrollmentResponse, error) {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	all, err := uow.Enrollments().GetAll(ctx)
	if err != nil {
		return nil, translateError(err, "enrollments", "list")
	}
	matched := make([]*models.Enrollment, 0, len(all))
	for _, e := range all {
		if filter.StudentID != "" && e.StudentID() != filter.StudentID {
			continue
		}
		if filter.CourseID != "" && e.CourseID() != filter.CourseID {
			continue
		}
		matched = append(matched, e)
	}
	sortBy(matched, func(e *models.Enrollment) string {
		return e.EnrolledOn().UTC().Format("2006-01-02T15:04:05.000000000") + e.ID()
	})
	out := make([]dto.EnrollmentResponse, 0, len(matched))
	for _, e := range matched {
		out = append(out, dto.NewEnrollmentResponse(e))
	}
	return out, nil
}

// Get returns a single enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*dto.EnrollmentResponse, error) {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	enrollment, err := uow.Enrollments().GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "enrollment", "load")
	}
	resp := dto.NewEnrollmentResponse(enrollment)
	return &resp, nil
}

// Enroll registers a student in a course. The checks and the insert share one
// transaction; a concurrent duplicate is caught by the unique constraint.
func (s *EnrollmentService) Enroll(ctx context.Context, req dto.EnrollRequest) (*dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	if err := uow.BeginTransaction(ctx); err != nil {
		return nil, translateError(err, "enrollment", "create")
	}
	enrollment, err := NewEnrollmentDomainService(uow, s.logger).EnrollStudentInCourse(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, translateError(err, "enrollment", "create")
	}
	uow.Enrollments().Add(enrollment)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return nil, translateError(err, "enrollment", "create")
	}
	if err := uow.CommitTransaction(); err != nil {
		return nil, translateError(err, "enrollment", "create")
	}
	if events := uow.Events(); len(events) > 0 && s.notifier != nil {
		s.notifier.Notify(events)
	}
	s.logger.Info("student enrolled",
		zap.String("enrollment_id", enrollment.ID()),
		zap.String("student_id", enrollment.StudentID()),
		zap.String("course_id", enrollment.CourseID()))
	resp := dto.NewEnrollmentResponse(enrollment)
	return &resp, nil
}

// Grade assigns or replaces the grade of an enrollment.
func (s *EnrollmentService) Grade(ctx context.Context, id string, req dto.GradeRequest) (*dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	return s.mutate(ctx, id, "grade", func(e *models.Enrollment) error {
		return e.UpdateGrade(*req.Grade)
	})
}

// ClearGrade removes the grade of an enrollment.
func (s *EnrollmentService) ClearGrade(ctx context.Context, id string) (*dto.EnrollmentResponse, error) {
	return s.mutate(ctx, id, "ungrade", func(e *models.Enrollment) error {
		e.ClearGrade()
		return nil
	})
}

func (s *EnrollmentService) mutate(ctx context.Context, id, action string, change func(*models.Enrollment) error) (*dto.EnrollmentResponse, error) {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	enrollment, err := uow.Enrollments().GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "enrollment", "load")
	}
	if err := change(enrollment); err != nil {
		return nil, err
	}
	uow.Enrollments().Update(enrollment)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return nil, translateError(err, "enrollment", action)
	}
	resp := dto.NewEnrollmentResponse(enrollment)
	return &resp, nil
}

// Unenroll removes an enrollment.
func (s *EnrollmentService) Unenroll(ctx context.Context, id string) error {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	enrollment, err := uow.Enrollments().GetByID(ctx, id)
	if err != nil {
		return translateError(err, "enrollment", "load")
	}
	uow.Enrollments().Delete(enrollment)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return translateError(err, "enrollment", "delete")
	}
	return nil
}

var _ UnitOfWorkFactory = (*repository.Factory)(nil)
