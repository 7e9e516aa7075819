package dto

import "github.com/noah-isme/academic-records-api/internal/models"

// InstructorRequest is the payload for hiring or updating an instructor.
type InstructorRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email,max=320"`
}

// InstructorResponse represents an instructor, optionally with taught courses.
type InstructorResponse struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Email   string           `json:"email"`
	Courses []CourseResponse `json:"courses,omitempty"`
}

func NewInstructorResponse(i *models.Instructor) InstructorResponse {
	resp := InstructorResponse{ID: i.ID(), Name: i.Name(), Email: i.Email()}
	for _, c := range i.Courses {
		resp.Courses = append(resp.Courses, NewCourseResponse(c))
	}
	return resp
}

func NewInstructorResponses(items []*models.Instructor) []InstructorResponse {
	out := make([]InstructorResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewInstructorResponse(item))
	}
	return out
}
