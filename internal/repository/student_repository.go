package repository

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/noah-isme/academic-records-api/internal/models"
)

const tableStudents = "students"

type studentRow struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

func (r studentRow) toEntity() *models.Student {
	return models.RestoreStudent(r.ID, r.Name, r.Email)
}

var studentMapping = mapping[*models.Student]{
	table:   tableInfo{name: tableStudents, aggregate: "student", rank: 0},
	columns: []interface{}{"id", "name", "email"},
	toRecord: func(s *models.Student) goqu.Record {
		return goqu.Record{"name": s.Name(), "email": s.Email()}
	},
	load: loadRows[studentRow, *models.Student],
}

// StudentRepository handles persistence of students.
type StudentRepository struct {
	*Repository[*models.Student]
}

func newStudentRepository(s *Session) *StudentRepository {
	return &StudentRepository{Repository: newRepository(s, studentMapping)}
}

// GetByIDWithEnrollments returns the student with its enrollments loaded, oldest first.
func (r *StudentRepository) GetByIDWithEnrollments(ctx context.Context, id string) (*models.Student, error) {
	student, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	enrollments, err := enrollmentsWhere(ctx, r.session, goqu.C("student_id").Eq(id))
	if err != nil {
		return nil, err
	}
	student.Enrollments = enrollments
	return student, nil
}
