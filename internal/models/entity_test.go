package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func requireInvalidArgument(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidArgument))
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, field, appErr.Field)
	assert.Contains(t, appErr.Message, field)
}

func TestNewStudentNormalisesInput(t *testing.T) {
	cases := []struct{ name, email, wantName, wantEmail string }{
		{"Ada Lovelace", "ada@example.com", "Ada Lovelace", "ada@example.com"},
		{"  Grace Hopper ", " Grace.Hopper@Navy.MIL  ", "Grace Hopper", "grace.hopper@navy.mil"},
		{"\tAlan\n", "ALAN@EXAMPLE.ORG", "Alan", "alan@example.org"},
	}
	for _, tc := range cases {
		s, err := NewStudent(tc.name, tc.email)
		require.NoError(t, err)
		assert.Equal(t, tc.wantName, s.Name())
		assert.Equal(t, tc.wantEmail, s.Email())
		assert.Empty(t, s.ID())
		require.Len(t, s.PendingEvents(), 1)
		assert.Equal(t, EventStudentRegistered, s.PendingEvents()[0].EventName())
	}
}

func TestNewStudentRejectsBlankFields(t *testing.T) {
	for _, blank := range []string{"", "   ", "\t\n"} {
		_, err := NewStudent(blank, "a@b.c")
		requireInvalidArgument(t, err, "name")

		_, err = NewStudent("Ada", blank)
		requireInvalidArgument(t, err, "email")
	}
}

func TestStudentUpdateIsAllOrNothing(t *testing.T) {
	s, err := NewStudent("Ada", "ada@example.com")
	require.NoError(t, err)
	s.ClearEvents()

	err = s.Update("Ada King", " ")
	requireInvalidArgument(t, err, "email")
	assert.Equal(t, "Ada", s.Name())
	assert.Equal(t, "ada@example.com", s.Email())
	assert.Empty(t, s.PendingEvents())

	require.NoError(t, s.Update(" Ada King ", "ADA.KING@example.com"))
	assert.Equal(t, "Ada King", s.Name())
	assert.Equal(t, "ada.king@example.com", s.Email())
	require.Len(t, s.PendingEvents(), 1)
	assert.Equal(t, EventStudentUpdated, s.PendingEvents()[0].EventName())
}

func TestInstructorValidation(t *testing.T) {
	_, err := NewInstructor("", "x@y.z")
	requireInvalidArgument(t, err, "name")

	i, err := NewInstructor(" Edsger ", " EWD@UTEXAS.EDU ")
	require.NoError(t, err)
	assert.Equal(t, "Edsger", i.Name())
	assert.Equal(t, "ewd@utexas.edu", i.Email())

	err = i.Update("  ", "ewd@utexas.edu")
	requireInvalidArgument(t, err, "name")
	assert.Equal(t, "Edsger", i.Name())
}

func TestCourseValidation(t *testing.T) {
	_, err := NewCourse(" ", "desc", "ins-1")
	requireInvalidArgument(t, err, "title")
	_, err = NewCourse("Algorithms", "", "ins-1")
	requireInvalidArgument(t, err, "description")
	_, err = NewCourse("Algorithms", "desc", "")
	requireInvalidArgument(t, err, "instructor_id")

	c, err := NewCourse(" Algorithms ", " Sorting and searching ", "ins-1")
	require.NoError(t, err)
	assert.Equal(t, "Algorithms", c.Title())
	assert.Equal(t, "Sorting and searching", c.Description())
	assert.Equal(t, "ins-1", c.InstructorID())

	err = c.Update("Algorithms II", "  ", "ins-2")
	requireInvalidArgument(t, err, "description")
	assert.Equal(t, "Algorithms", c.Title())
	assert.Equal(t, "ins-1", c.InstructorID())

	c.Instructor = RestoreInstructor("ins-1", "Edsger", "ewd@utexas.edu")
	require.NoError(t, c.Update("Algorithms II", "Graphs", "ins-2"))
	assert.Equal(t, "ins-2", c.InstructorID())
	assert.Nil(t, c.Instructor)
}

func TestEnrollmentGradeBounds(t *testing.T) {
	e, err := NewEnrollment("s1", "c1", time.Now())
	require.NoError(t, err)
	assert.Nil(t, e.Grade())

	for _, g := range []float64{0, 0.5, 59.99, 100} {
		require.NoError(t, e.UpdateGrade(g))
		require.NotNil(t, e.Grade())
		assert.Equal(t, g, *e.Grade())
	}

	for _, g := range []float64{-1, -0.0001, 100.0001, 101} {
		err := e.UpdateGrade(g)
		requireInvalidArgument(t, err, "grade")
		assert.Equal(t, 100.0, *e.Grade())
	}
}

func TestEnrollmentKeepsOnlyStorablePrecision(t *testing.T) {
	at := time.Date(2026, 9, 1, 8, 30, 0, 115861009, time.FixedZone("WIB", 7*3600))
	e, err := NewEnrollment("s1", "c1", at)
	require.NoError(t, err)
	assert.Zero(t, e.EnrolledOn().Nanosecond()%1000)
	assert.Equal(t, time.UTC, e.EnrolledOn().Location())
	assert.True(t, at.Truncate(time.Microsecond).Equal(e.EnrolledOn()))

	grade := 59.12345
	restored := RestoreEnrollment("e1", "s1", "c1", at, &grade)
	assert.Equal(t, e.EnrolledOn(), restored.EnrolledOn())

	require.NoError(t, e.UpdateGrade(grade))
	assert.Equal(t, 59.12345, *e.Grade())
	assert.Equal(t, *restored.Grade(), *e.Grade())
}

func TestEnrollmentRegradeAndClear(t *testing.T) {
	e, err := NewEnrollment("s1", "c1", time.Now())
	require.NoError(t, err)
	e.ClearEvents()

	require.NoError(t, e.UpdateGrade(70))
	require.NoError(t, e.UpdateGrade(85))
	events := e.PendingEvents()
	require.Len(t, events, 2)
	second, ok := events[1].(EnrollmentGraded)
	require.True(t, ok)
	require.NotNil(t, second.PreviousGrade)
	assert.Equal(t, 70.0, *second.PreviousGrade)

	e.ClearGrade()
	assert.Nil(t, e.Grade())
	assert.Len(t, e.PendingEvents(), 3)
}

func TestNewEnrollmentRequiresReferences(t *testing.T) {
	_, err := NewEnrollment("", "c1", time.Now())
	requireInvalidArgument(t, err, "student_id")
	_, err = NewEnrollment("s1", " ", time.Now())
	requireInvalidArgument(t, err, "course_id")
	_, err = NewEnrollment("s1", "c1", time.Time{})
	requireInvalidArgument(t, err, "enrolled_on")
}

func TestBaseEntityAssignIDOnce(t *testing.T) {
	s := RestoreStudent("", "Ada", "ada@example.com")
	s.AssignID("id-1")
	s.AssignID("id-2")
	assert.Equal(t, "id-1", s.ID())
	s.AssignID("")
	assert.Empty(t, s.ID())
}

func TestPendingEventsReturnsCopy(t *testing.T) {
	s, err := NewStudent("Ada", "ada@example.com")
	require.NoError(t, err)
	events := s.PendingEvents()
	events[0] = nil
	assert.NotNil(t, s.PendingEvents()[0])
}
