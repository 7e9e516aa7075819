package dto

import "github.com/noah-isme/academic-records-api/internal/models"

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"required,max=2000"`
	InstructorID string `json:"instructorId" validate:"required"`
}

// CourseResponse represents a course with whichever relations were loaded.
type CourseResponse struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	InstructorID string               `json:"instructorId"`
	Instructor   *InstructorResponse  `json:"instructor,omitempty"`
	Enrollments  []EnrollmentResponse `json:"enrollments,omitempty"`
}

func NewCourseResponse(c *models.Course) CourseResponse {
	resp := CourseResponse{
		ID:           c.ID(),
		Title:        c.Title(),
		Description:  c.Description(),
		InstructorID: c.InstructorID(),
		Enrollments:  NewEnrollmentResponses(c.Enrollments),
	}
	if c.Instructor != nil {
		instructor := InstructorResponse{ID: c.Instructor.ID(), Name: c.Instructor.Name(), Email: c.Instructor.Email()}
		resp.Instructor = &instructor
	}
	return resp
}

func NewCourseResponses(items []*models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewCourseResponse(item))
	}
	return out
}
