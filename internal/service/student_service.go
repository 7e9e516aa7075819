package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/dto"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
	"github.com/noah-isme/academic-records-api/pkg/export"
)

type studentChecker interface {
	Validate(ctx context.Context, name, email string) (bool, []string, error)
}

// StudentService handles student use-cases.
type StudentService struct {
	uows      UnitOfWorkFactory
	checker   studentChecker
	notifier  EventNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service. checker may be nil.
func NewStudentService(uows UnitOfWorkFactory, checker studentChecker, notifier EventNotifier, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{uows: uows, checker: checker, notifier: notifier, validator: validate, logger: logger}
}

// List returns every student ordered by name.
func (s *StudentService) List(ctx context.Context) ([]dto.StudentResponse, error) {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	students, err := uow.Students().GetAll(ctx)
	if err != nil {
		return nil, translateError(err, "students", "list")
	}
	sortBy(students, func(st *models.Student) string { return st.Name() + "\x00" + st.ID() })
	return dto.NewStudentResponses(students), nil
}

// Get returns a student with their enrollments.
func (s *StudentService) Get(ctx context.Context, id string) (*dto.StudentResponse, error) {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	student, err := uow.Students().GetByIDWithEnrollments(ctx, id)
	if err != nil {
		return nil, translateError(err, "student", "load")
	}
	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

// Create registers a new student after the external registry accepts them.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student, err := models.NewStudent(req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	if err := s.checkRegistry(ctx, student); err != nil {
		return nil, err
	}

	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	uow.Students().Add(student)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return nil, translateError(err, "student", "create")
	}
	s.logger.Info("student registered", zap.String("student_id", student.ID()))
	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

func (s *StudentService) checkRegistry(ctx context.Context, student *models.Student) error {
	if s.checker == nil {
		return nil
	}
	valid, messages, err := s.checker.Validate(ctx, student.Name(), student.Email())
	if err != nil {
		s.logger.Warn("student validation unavailable", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, "student validation unavailable")
	}
	if !valid {
		rejected := appErrors.Clone(appErrors.ErrValidation, "student rejected by registry")
		rejected.Details = messages
		return rejected
	}
	return nil
}

// Update replaces a student's name and email.
func (s *StudentService) Update(ctx context.Context, id string, req dto.StudentRequest) (*dto.StudentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	student, err := uow.Students().GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "student", "load")
	}
	if err := student.Update(req.Name, req.Email); err != nil {
		return nil, err
	}
	uow.Students().Update(student)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return nil, translateError(err, "student", "update")
	}
	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

// Transcript renders the student's enrollments with course titles and grades
// as csv or pdf, oldest enrollment first.
func (s *StudentService) Transcript(ctx context.Context, id, format string) (*dto.TranscriptFile, error) {
	contentType, ok := export.ContentType(format)
	if !ok {
		return nil, appErrors.InvalidArgument("format", "must be csv or pdf")
	}
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	student, err := uow.Students().GetByIDWithEnrollments(ctx, id)
	if err != nil {
		return nil, translateError(err, "student", "load")
	}
	courseIDs := make([]string, 0, len(student.Enrollments))
	for _, e := range student.Enrollments {
		courseIDs = append(courseIDs, e.CourseID())
	}
	titles, err := uow.Courses().TitlesByID(ctx, courseIDs)
	if err != nil {
		return nil, translateError(err, "courses", "load")
	}

	table := export.Table{
		Title:   fmt.Sprintf("Transcript: %s <%s>", student.Name(), student.Email()),
		Columns: []string{"Course", "Enrolled On", "Grade"},
	}
	for _, e := range student.Enrollments {
		grade := ""
		if g := e.Grade(); g != nil {
			grade = strconv.FormatFloat(*g, 'f', -1, 64)
		}
		title, found := titles[e.CourseID()]
		if !found {
			title = e.CourseID()
		}
		table.Rows = append(table.Rows, []string{title, e.EnrolledOn().UTC().Format("2006-01-02"), grade})
	}
	content, err := export.Render(format, table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript")
	}
	return &dto.TranscriptFile{
		Filename:    fmt.Sprintf("transcript-%s.%s", student.ID(), strings.ToLower(format)),
		ContentType: contentType,
		Content:     content,
	}, nil
}

// Delete removes a student together with their enrollments.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	uow := s.uows.New()
	defer closeUnitOfWork(uow, s.logger)

	student, err := uow.Students().GetByID(ctx, id)
	if err != nil {
		return translateError(err, "student", "load")
	}
	uow.Students().Delete(student)
	if err := commit(ctx, uow, s.notifier); err != nil {
		return translateError(err, "student", "delete")
	}
	return nil
}
