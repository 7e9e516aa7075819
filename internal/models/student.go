package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	BaseEntity
	name  string
	email string

	// Enrollments is populated only by eager-loading reads.
	Enrollments []*Enrollment
}

// NewStudent validates and normalises the inputs before building a student.
func NewStudent(name, email string) (*Student, error) {
	n, err := requireText("name", name)
	if err != nil {
		return nil, err
	}
	e, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	s := &Student{name: n, email: e}
	s.Raise(StudentRegistered{Name: n, Email: e, OccurredAt: time.Now().UTC()})
	return s, nil
}

// RestoreStudent rehydrates a persisted student without raising events.
func RestoreStudent(id, name, email string) *Student {
	s := &Student{name: name, email: email}
	s.AssignID(id)
	return s
}

// Name returns the trimmed student name.
func (s *Student) Name() string { return s.name }

// Email returns the normalised email address.
func (s *Student) Email() string { return s.email }

// Update replaces name and email. Nothing is applied if either value is invalid.
func (s *Student) Update(name, email string) error {
	n, err := requireText("name", name)
	if err != nil {
		return err
	}
	e, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	s.name, s.email = n, e
	s.Raise(StudentUpdated{Name: n, Email: e, OccurredAt: time.Now().UTC()})
	return nil
}
