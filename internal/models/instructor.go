package models

import "time"

// Instructor represents a member of staff who teaches courses.
type Instructor struct {
	BaseEntity
	name  string
	email string

	// Courses is populated only by eager-loading reads.
	Courses []*Course
}

// NewInstructor validates and normalises the inputs before building an instructor.
func NewInstructor(name, email string) (*Instructor, error) {
	n, err := requireText("name", name)
	if err != nil {
		return nil, err
	}
	e, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	i := &Instructor{name: n, email: e}
	i.Raise(InstructorHired{Name: n, Email: e, OccurredAt: time.Now().UTC()})
	return i, nil
}

// RestoreInstructor rehydrates a persisted instructor without raising events.
func RestoreInstructor(id, name, email string) *Instructor {
	i := &Instructor{name: name, email: email}
	i.AssignID(id)
	return i
}

func (i *Instructor) Name() string  { return i.name }
func (i *Instructor) Email() string { return i.email }

// Update replaces name and email atomically.
func (i *Instructor) Update(name, email string) error {
	n, err := requireText("name", name)
	if err != nil {
		return err
	}
	e, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	i.name, i.email = n, e
	i.Raise(InstructorUpdated{Name: n, Email: e, OccurredAt: time.Now().UTC()})
	return nil
}
