package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type existenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type enrollmentPairChecker interface {
	StudentAlreadyEnrolled(ctx context.Context, studentID, courseID string) (bool, error)
}

// EnrollmentDomainService enforces the rules an enrollment must satisfy across
// students, courses and existing enrollments. It never stages or commits.
type EnrollmentDomainService struct {
	students    existenceChecker
	courses     existenceChecker
	enrollments enrollmentPairChecker
	now         func() time.Time
	logger      *zap.Logger
}

// NewEnrollmentDomainService binds the service to the repositories of a unit of work.
func NewEnrollmentDomainService(uow *repository.UnitOfWork, logger *zap.Logger) *EnrollmentDomainService {
	return newEnrollmentDomainService(uow.Students(), uow.Courses(), uow.Enrollments(), logger)
}

func newEnrollmentDomainService(students, courses existenceChecker, enrollments enrollmentPairChecker, logger *zap.Logger) *EnrollmentDomainService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentDomainService{
		students:    students,
		courses:     courses,
		enrollments: enrollments,
		now:         time.Now,
		logger:      logger,
	}
}

// ValidateEnrollment checks that both parties exist and the pair is not enrolled yet.
// Every check runs; the first violation in student, course, duplicate order is returned.
func (s *EnrollmentDomainService) ValidateEnrollment(ctx context.Context, studentID, courseID string) error {
	studentExists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return fmt.Errorf("check student: %w", err)
	}
	courseExists, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return fmt.Errorf("check course: %w", err)
	}
	enrolled, err := s.enrollments.StudentAlreadyEnrolled(ctx, studentID, courseID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}

	switch {
	case !studentExists:
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s not found", studentID))
	case !courseExists:
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", courseID))
	case enrolled:
		s.logger.Debug("duplicate enrollment rejected", zap.String("student_id", studentID), zap.String("course_id", courseID))
		return appErrors.Clone(appErrors.ErrConflict, "student already enrolled in course")
	}
	return nil
}

// EnrollStudentInCourse validates the pair and builds an ungraded enrollment.
// The caller stages it and decides when to save.
func (s *EnrollmentDomainService) EnrollStudentInCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	if err := s.ValidateEnrollment(ctx, studentID, courseID); err != nil {
		return nil, err
	}
	return models.NewEnrollment(studentID, courseID, s.now().UTC())
}
