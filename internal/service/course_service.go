package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// CourseService handles course use-cases.
type CourseService struct {
	uows      UnitOfWorkFactory
	notifier  EventNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(uows UnitOfWorkFactory, notifier EventNotifier, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{uows: uows, notifier: notifier, validator: validate, logger: logger}
}

// List returns every course ordered by title.
func (s *CourseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	courses, err := uow.Courses().GetAll(ctx)
	if err != nil {
		return nil, translateError(err, "courses", "list")
	}
	sortBy(courses, func(c *models.Course) string { return c.Title() + "\x00" + c.ID() })
	return dto.NewCourseResponses(courses), nil
}

// Get returns a course with its instructor and enrollments.
func (s *CourseService) Get(ctx context.Context, id string) (*dto.CourseResponse, error) {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	course, err := uow.Courses().GetByIDWithInstructor(ctx, id)
	if err != nil {
		return nil, translateError(err, "course", "load")
	}
	withEnrollments, err := uow.Courses().GetByIDWithEnrollments(ctx, id)
	if err != nil {
		return nil, translateError(err, "course", "load")
	}
	course.Enrollments = withEnrollments.Enrollments
	resp := dto.NewCourseResponse(course)
	return &resp, nil
}

// Create adds a course taught by an existing instructor.
func (s *CourseService) Create(ctx context.Context, req dto.CourseRequest) (*dto.CourseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	course, err := models.NewCourse(req.Title, req.Description, req.InstructorID)
	if err != nil {
		return nil, err
	}

	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	if err := requireInstructor(ctx, uow, course.InstructorID()); err != nil {
		return nil, err
	}
	uow.Courses().Add(course)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return nil, translateError(err, "course", "create")
	}
	resp := dto.NewCourseResponse(course)
	return &resp, nil
}

// Update replaces a course's details, possibly moving it to another instructor.
func (s *CourseService) Update(ctx context.Context, id string, req dto.CourseRequest) (*dto.CourseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	course, err := uow.Courses().GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "course", "load")
	}
	if req.InstructorID != course.InstructorID() {
		if err := requireInstructor(ctx, uow, req.InstructorID); err != nil {
			return nil, err
		}
	}
	if err := course.Update(req.Title, req.Description, req.InstructorID); err != nil {
		return nil, err
	}
	uow.Courses().Update(course)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return nil, translateError(err, "course", "update")
	}
	resp := dto.NewCourseResponse(course)
	return &resp, nil
}

// Delete removes a course together with its enrollments.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	course, err := uow.Courses().GetByID(ctx, id)
	if err != nil {
		return translateError(err, "course", "load")
	}
	uow.Courses().Delete(course)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return translateError(err, "course", "delete")
	}
	return nil
}

func requireInstructor(ctx context.Context, uow *repository.UnitOfWork, id string) error {
	exists, err := uow.Instructors().Exists(ctx, id)
	if err != nil {
		return translateError(err, "instructor", "load")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("instructor %s not found", id))
	}
	return nil
}
