package models

import (
	"math"
	"time"

	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// Grade bounds, both inclusive.
const (
	MinGrade = 0.0
	MaxGrade = 100.0
)

// Enrollment captures a student's registration to a course.
//
// Uniqueness of the (student, course) pair is not checked here; the enrollment
// domain service and the enrollments table constraint enforce it.
type Enrollment struct {
	BaseEntity
	studentID  string
	courseID   string
	enrolledOn time.Time
	grade      *float64
}

// NewEnrollment builds an ungraded enrollment.
func NewEnrollment(studentID, courseID string, enrolledOn time.Time) (*Enrollment, error) {
	s, err := requireText("student_id", studentID)
	if err != nil {
		return nil, err
	}
	c, err := requireText("course_id", courseID)
	if err != nil {
		return nil, err
	}
	if enrolledOn.IsZero() {
		return nil, appErrors.InvalidArgument("enrolled_on", "must be set")
	}
	e := &Enrollment{studentID: s, courseID: c, enrolledOn: storedTime(enrolledOn)}
	e.Raise(StudentEnrolled{StudentID: s, CourseID: c, OccurredAt: e.enrolledOn})
	return e, nil
}

// RestoreEnrollment rehydrates a persisted enrollment without raising events.
func RestoreEnrollment(id, studentID, courseID string, enrolledOn time.Time, grade *float64) *Enrollment {
	e := &Enrollment{studentID: studentID, courseID: courseID, enrolledOn: storedTime(enrolledOn), grade: copyGrade(grade)}
	e.AssignID(id)
	return e
}

func (e *Enrollment) StudentID() string     { return e.studentID }
func (e *Enrollment) CourseID() string      { return e.courseID }
func (e *Enrollment) EnrolledOn() time.Time { return e.enrolledOn }

// Grade returns a copy of the grade, nil when ungraded.
func (e *Enrollment) Grade() *float64 { return copyGrade(e.grade) }

// UpdateGrade sets or replaces the grade. Out-of-range values are rejected, never clamped.
func (e *Enrollment) UpdateGrade(value float64) error {
	if math.IsNaN(value) || value < MinGrade || value > MaxGrade {
		return appErrors.InvalidArgument("grade", "must be between 0 and 100")
	}
	previous := copyGrade(e.grade)
	e.grade = &value
	e.Raise(EnrollmentGraded{
		StudentID:     e.studentID,
		CourseID:      e.courseID,
		Grade:         value,
		PreviousGrade: previous,
		OccurredAt:    time.Now().UTC(),
	})
	return nil
}

// ClearGrade removes any grade. Grading is not a one-way transition.
func (e *Enrollment) ClearGrade() {
	if e.grade == nil {
		return
	}
	e.grade = nil
	e.Raise(EnrollmentUngraded{StudentID: e.studentID, CourseID: e.courseID, OccurredAt: time.Now().UTC()})
}

// storedTime drops what the database cannot keep, so a saved enrollment reads back unchanged.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func copyGrade(g *float64) *float64 {
	if g == nil {
		return nil
	}
	v := *g
	return &v
}
