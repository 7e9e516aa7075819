package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
)

// InstructorService handles instructor use-cases.
type InstructorService struct {
	uows      UnitOfWorkFactory
	notifier  EventNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstructorService constructs InstructorService.
func NewInstructorService(uows UnitOfWorkFactory, notifier EventNotifier, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{uows: uows, notifier: notifier, validator: validate, logger: logger}
}

// List returns every instructor ordered by name.
func (s *InstructorService) List(ctx context.Context) ([]dto.InstructorResponse, error) {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	instructors, err := uow.Instructors().GetAll(ctx)
	if err != nil {
		return nil, translateError(err, "instructors", "list")
	}
	sortBy(instructors, func(i *models.Instructor) string { return i.Name() + "\x00" + i.ID() })
	return dto.NewInstructorResponses(instructors), nil
}

// Get returns an instructor with the courses they teach.
func (s *InstructorService) Get(ctx context.Context, id string) (*dto.InstructorResponse, error) {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	instructor, err := uow.Instructors().GetByIDWithCourses(ctx, id)
	if err != nil {
		return nil, translateError(err, "instructor", "load")
	}
	resp := dto.NewInstructorResponse(instructor)
	return &resp, nil
}

// Create hires an instructor.
func (s *InstructorService) Create(ctx context.Context, req dto.InstructorRequest) (*dto.InstructorResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid instructor payload")
	}
	instructor, err := models.NewInstructor(req.Name, req.Email)
	if err != nil {
		return nil, err
	}

	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	uow.Instructors().Add(instructor)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return nil, translateError(err, "instructor", "create")
	}
	resp := dto.NewInstructorResponse(instructor)
	return &resp, nil
}

// Update replaces an instructor's name and email.
func (s *InstructorService) Update(ctx context.Context, id string, req dto.InstructorRequest) (*dto.InstructorResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid instructor payload")
	}
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	instructor, err := uow.Instructors().GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "instructor", "load")
	}
	if err := instructor.Update(req.Name, req.Email); err != nil {
		return nil, err
	}
	uow.Instructors().Update(instructor)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return nil, translateError(err, "instructor", "update")
	}
	resp := dto.NewInstructorResponse(instructor)
	return &resp, nil
}

// Delete removes an instructor. Instructors who still teach courses cannot be removed.
func (s *InstructorService) Delete(ctx context.Context, id string) error {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	instructor, err := uow.Instructors().GetByID(ctx, id)
	if err != nil {
		return translateError(err, "instructor", "load")
	}
	uow.Instructors().Delete(instructor)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return translateError(err, "instructor", "delete")
	}
	return nil
}
