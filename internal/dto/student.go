package dto

import "github.com/noah-isme/academic-records-api/internal/models"

// StudentRequest is the payload for registering or updating a student.
type StudentRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email,max=320"`
}

// StudentResponse represents a student, optionally with enrollments.
type StudentResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Enrollments []EnrollmentResponse `json:"enrollments,omitempty"`
}

// NewStudentResponse maps a student including any loaded enrollments.
func NewStudentResponse(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:          s.ID(),
		Name:        s.Name(),
		Email:       s.Email(),
		Enrollments: NewEnrollmentResponses(s.Enrollments),
	}
}

// NewStudentResponses maps a list of students.
func NewStudentResponses(items []*models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewStudentResponse(item))
	}
	return out
}
