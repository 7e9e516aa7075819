package models

import "time"

// Event names written to the outbox.
const (
	EventStudentRegistered  = "student.registered"
	EventStudentUpdated     = "student.updated"
	EventInstructorHired    = "instructor.hired"
	EventInstructorUpdated  = "instructor.updated"
	EventCourseCreated      = "course.created"
	EventCourseUpdated      = "course.updated"
	EventStudentEnrolled    = "enrollment.created"
	EventEnrollmentGraded   = "enrollment.graded"
	EventEnrollmentUngraded = "enrollment.ungraded"
)

// StudentRegistered is raised when a student is created.
type StudentRegistered struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e StudentRegistered) EventName() string     { return EventStudentRegistered }
func (e StudentRegistered) OccurredOn() time.Time { return e.OccurredAt }

// StudentUpdated is raised when a student's profile changes.
type StudentUpdated struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e StudentUpdated) EventName() string     { return EventStudentUpdated }
func (e StudentUpdated) OccurredOn() time.Time { return e.OccurredAt }

// InstructorHired is raised when an instructor is created.
type InstructorHired struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e InstructorHired) EventName() string     { return EventInstructorHired }
func (e InstructorHired) OccurredOn() time.Time { return e.OccurredAt }

// InstructorUpdated is raised when an instructor's profile changes.
type InstructorUpdated struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e InstructorUpdated) EventName() string     { return EventInstructorUpdated }
func (e InstructorUpdated) OccurredOn() time.Time { return e.OccurredAt }

// CourseCreated is raised when a course is created.
type CourseCreated struct {
	Title        string    `json:"title"`
	InstructorID string    `json:"instructor_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e CourseCreated) EventName() string     { return EventCourseCreated }
func (e CourseCreated) OccurredOn() time.Time { return e.OccurredAt }

// CourseUpdated is raised when course details or its instructor change.
type CourseUpdated struct {
	Title        string    `json:"title"`
	InstructorID string    `json:"instructor_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e CourseUpdated) EventName() string     { return EventCourseUpdated }
func (e CourseUpdated) OccurredOn() time.Time { return e.OccurredAt }

// StudentEnrolled is raised when an enrollment is created.
type StudentEnrolled struct {
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e StudentEnrolled) EventName() string     { return EventStudentEnrolled }
func (e StudentEnrolled) OccurredOn() time.Time { return e.OccurredAt }

// EnrollmentGraded is raised whenever a grade is set, including re-grades.
type EnrollmentGraded struct {
	StudentID     string    `json:"student_id"`
	CourseID      string    `json:"course_id"`
	Grade         float64   `json:"grade"`
	PreviousGrade *float64  `json:"previous_grade,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (e EnrollmentGraded) EventName() string     { return EventEnrollmentGraded }
func (e EnrollmentGraded) OccurredOn() time.Time { return e.OccurredAt }

// EnrollmentUngraded is raised when a grade is cleared.
type EnrollmentUngraded struct {
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e EnrollmentUngraded) EventName() string     { return EventEnrollmentUngraded }
func (e EnrollmentUngraded) OccurredOn() time.Time { return e.OccurredAt }

// EventEnvelope is a committed event together with the entity that raised it.
type EventEnvelope struct {
	ID            string      `db:"id" json:"id"`
	AggregateType string      `db:"aggregate_type" json:"aggregate_type"`
	AggregateID   string      `db:"aggregate_id" json:"aggregate_id"`
	Name          string      `db:"event_name" json:"event_name"`
	Payload       []byte      `db:"payload" json:"payload"`
	OccurredAt    time.Time   `db:"occurred_at" json:"occurred_at"`
	Event         DomainEvent `db:"-" json:"-"`
}
