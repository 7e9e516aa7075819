package repository

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/noah-isme/academic-records-api/internal/models"
)

const tableInstructors = "instructors"

type instructorRow struct {
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

func (r instructorRow) toEntity() *models.Instructor {
	return models.RestoreInstructor(r.ID, r.Name, r.Email)
}

var instructorMapping = mapping[*models.Instructor]{
	table:   tableInfo{name: tableInstructors, aggregate: "instructor", rank: 0},
	columns: []interface{}{"id", "name", "email"},
	toRecord: func(i *models.Instructor) goqu.Record {
		return goqu.Record{"name": i.Name(), "email": i.Email()}
	},
	load: loadRows[instructorRow, *models.Instructor],
}

// InstructorRepository handles persistence of instructors.
type InstructorRepository struct {
	*Repository[*models.Instructor]
}

func newInstructorRepository(s *Session) *InstructorRepository {
	return &InstructorRepository{Repository: newRepository(s, instructorMapping)}
}

// GetByIDWithCourses returns the instructor with the courses they teach.
func (r *InstructorRepository) GetByIDWithCourses(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ds := dialect.From(tableCourses).
		Select(courseMapping.columns...).
		Where(goqu.C("instructor_id").Eq(id)).
		Order(goqu.C("title").Asc())
	courses, err := courseMapping.load(ctx, r.session, ds)
	if err != nil {
		return nil, err
	}
	instructor.Courses = courses
	return instructor, nil
}
