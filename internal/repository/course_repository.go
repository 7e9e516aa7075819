package repository

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/noah-isme/academic-records-api/internal/models"
)

const tableCourses = "courses"

type courseRow struct {
	ID           string `db:"id"`
	Title        string `db:"title"`
	Description  string `db:"description"`
	InstructorID string `db:"instructor_id"`
}

func (r courseRow) toEntity() *models.Course {
	return models.RestoreCourse(r.ID, r.Title, r.Description, r.InstructorID)
}

var courseMapping = mapping[*models.Course]{
	table:   tableInfo{name: tableCourses, aggregate: "course", rank: 1},
	columns: []interface{}{"id", "title", "description", "instructor_id"},
	toRecord: func(c *models.Course) goqu.Record {
		return goqu.Record{"title": c.Title(), "description": c.Description(), "instructor_id": c.InstructorID()}
	},
	load: loadRows[courseRow, *models.Course],
}

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	*Repository[*models.Course]
}

func newCourseRepository(s *Session) *CourseRepository {
	return &CourseRepository{Repository: newRepository(s, courseMapping)}
}

// GetByIDWithInstructor returns the course with its instructor loaded.
func (r *CourseRepository) GetByIDWithInstructor(ctx context.Context, id string) (*models.Course, error) {
	course, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	instructors, err := instructorMapping.load(ctx, r.session, dialect.From(tableInstructors).
		Select(instructorMapping.columns...).
		Where(goqu.C(colID).Eq(course.InstructorID())))
	if err != nil {
		return nil, fmt.Errorf("load course instructor: %w", err)
	}
	if len(instructors) > 0 {
		course.Instructor = instructors[0]
	}
	return course, nil
}

// GetByIDWithEnrollments returns the course with its enrollments loaded, oldest first.
func (r *CourseRepository) GetByIDWithEnrollments(ctx context.Context, id string) (*models.Course, error) {
	course, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	enrollments, err := enrollmentsWhere(ctx, r.session, goqu.C("course_id").Eq(id))
	if err != nil {
		return nil, err
	}
	course.Enrollments = enrollments
	return course, nil
}

// TitlesByID maps the given course ids to their titles in one query.
// Unknown ids are absent from the result.
func (r *CourseRepository) TitlesByID(ctx context.Context, ids []string) (map[string]string, error) {
	titles := make(map[string]string, len(ids))
	unique := make([]interface{}, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return titles, nil
	}
	var rows []courseRow
	ds := dialect.From(tableCourses).
		Select(colID, "title").
		Where(goqu.C(colID).In(unique...))
	if err := r.session.selectInto(ctx, &rows, ds); err != nil {
		return nil, fmt.Errorf("load course titles: %w", err)
	}
	for _, row := range rows {
		titles[row.ID] = row.Title
	}
	return titles, nil
}
