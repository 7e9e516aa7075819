package dto

import (
	"time"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// EnrollRequest defines the payload for enrolling a student in a course.
type EnrollRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

// GradeRequest sets the grade of an enrollment.
type GradeRequest struct {
	Grade *float64 `json:"grade" validate:"required,gte=0,lte=100"`
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
}

// EnrollmentResponse represents an enrollment. Grade is omitted until assigned.
type EnrollmentResponse struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"studentId"`
	CourseID   string    `json:"courseId"`
	EnrolledOn time.Time `json:"enrolledOn"`
	Grade      *float64  `json:"grade,omitempty"`
}

func NewEnrollmentResponse(e *models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         e.ID(),
		StudentID:  e.StudentID(),
		CourseID:   e.CourseID(),
		EnrolledOn: e.EnrolledOn(),
		Grade:      e.Grade(),
	}
}

// NewEnrollmentResponses returns nil for an empty input so unloaded relations stay omitted.
func NewEnrollmentResponses(items []*models.Enrollment) []EnrollmentResponse {
	if len(items) == 0 {
		return nil
	}
	out := make([]EnrollmentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewEnrollmentResponse(item))
	}
	return out
}
