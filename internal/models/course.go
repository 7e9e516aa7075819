package models

import "time"

// Course is taught by exactly one instructor and may have many enrollments.
type Course struct {
	BaseEntity
	title        string
	description  string
	instructorID string

	// Instructor and Enrollments are populated only by eager-loading reads.
	Instructor  *Instructor
	Enrollments []*Enrollment
}

type courseFields struct {
	title, description, instructorID string
}

func validateCourse(title, description, instructorID string) (courseFields, error) {
	t, err := requireText("title", title)
	if err != nil {
		return courseFields{}, err
	}
	d, err := requireText("description", description)
	if err != nil {
		return courseFields{}, err
	}
	ins, err := requireText("instructor_id", instructorID)
	if err != nil {
		return courseFields{}, err
	}
	return courseFields{title: t, description: d, instructorID: ins}, nil
}

// NewCourse validates the inputs before building a course.
func NewCourse(title, description, instructorID string) (*Course, error) {
	f, err := validateCourse(title, description, instructorID)
	if err != nil {
		return nil, err
	}
	c := &Course{title: f.title, description: f.description, instructorID: f.instructorID}
	c.Raise(CourseCreated{Title: f.title, InstructorID: f.instructorID, OccurredAt: time.Now().UTC()})
	return c, nil
}

// RestoreCourse rehydrates a persisted course without raising events.
func RestoreCourse(id, title, description, instructorID string) *Course {
	c := &Course{title: title, description: description, instructorID: instructorID}
	c.AssignID(id)
	return c
}

func (c *Course) Title() string        { return c.title }
func (c *Course) Description() string  { return c.description }
func (c *Course) InstructorID() string { return c.instructorID }

// Update replaces all course fields; on error the course is left untouched.
func (c *Course) Update(title, description, instructorID string) error {
	f, err := validateCourse(title, description, instructorID)
	if err != nil {
		return err
	}
	if c.Instructor != nil && c.Instructor.ID() != f.instructorID {
		c.Instructor = nil
	}
	c.title, c.description, c.instructorID = f.title, f.description, f.instructorID
	c.Raise(CourseUpdated{Title: f.title, InstructorID: f.instructorID, OccurredAt: time.Now().UTC()})
	return nil
}
