package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/noah-isme/academic-records-api/internal/models"
)

const tableEnrollments = "enrollments"

type enrollmentRow struct {
	ID         string          `db:"id"`
	StudentID  string          `db:"student_id"`
	CourseID   string          `db:"course_id"`
	EnrolledOn time.Time       `db:"enrolled_on"`
	Grade      sql.NullFloat64 `db:"grade"`
}

func (r enrollmentRow) toEntity() *models.Enrollment {
	var grade *float64
	if r.Grade.Valid {
		grade = &r.Grade.Float64
	}
	return models.RestoreEnrollment(r.ID, r.StudentID, r.CourseID, r.EnrolledOn, grade)
}

var enrollmentMapping = mapping[*models.Enrollment]{
	table:   tableInfo{name: tableEnrollments, aggregate: "enrollment", rank: 2},
	columns: []interface{}{"id", "student_id", "course_id", "enrolled_on", "grade"},
	toRecord: func(e *models.Enrollment) goqu.Record {
		var grade interface{}
		if g := e.Grade(); g != nil {
			grade = *g
		}
		return goqu.Record{
			"student_id":  e.StudentID(),
			"course_id":   e.CourseID(),
			"enrolled_on": e.EnrolledOn(),
			"grade":       grade,
		}
	},
	load: loadRows[enrollmentRow, *models.Enrollment],
}

func enrollmentsWhere(ctx context.Context, s *Session, cond exp.Expression) ([]*models.Enrollment, error) {
	ds := dialect.From(tableEnrollments).
		Select(enrollmentMapping.columns...).
		Where(cond).
		Order(goqu.C("enrolled_on").Asc())
	enrollments, err := enrollmentMapping.load(ctx, s, ds)
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}
	return enrollments, nil
}

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	*Repository[*models.Enrollment]
}

func newEnrollmentRepository(s *Session) *EnrollmentRepository {
	return &EnrollmentRepository{Repository: newRepository(s, enrollmentMapping)}
}

// StudentAlreadyEnrolled reports whether the pair is enrolled, counting staged
// inserts and ignoring rows staged for deletion.
func (r *EnrollmentRepository) StudentAlreadyEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	for _, c := range r.session.stagedFor(tableEnrollments) {
		e, ok := c.entity.(*models.Enrollment)
		if !ok || c.kind == changeDelete {
			continue
		}
		if e.StudentID() == studentID && e.CourseID() == courseID {
			return true, nil
		}
	}

	var ids []string
	ds := dialect.From(tableEnrollments).
		Select(colID).
		Where(goqu.C("student_id").Eq(studentID), goqu.C("course_id").Eq(courseID))
	if err := r.session.selectInto(ctx, &ids, ds); err != nil {
		return false, fmt.Errorf("check enrollment pair: %w", err)
	}
	for _, id := range ids {
		if c := r.session.stagedByID(tableEnrollments, id); c != nil && c.kind == changeDelete {
			continue
		}
		return true, nil
	}
	return false, nil
}
