package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/student"
)

const insertStudentQuery = `
	INSERT INTO students (id, firstName, lastName, studentId, grade, section, gender, dateOfBirth, createdAt)
	VALUES (:id, :firstName, :lastName, :studentId, :grade, :section, :gender, :dateOfBirth, :createdAt)`

var (
	studentColumns = []string{"id", "firstName", "lastName", "studentId", "grade", "section", "gender", "dateOfBirth", "createdAt"}

	// ordering query param -> column
	studentOrderingColumns = map[string]string{
		"first_name":    "firstName",
		"last_name":     "lastName",
		"student_id":    "studentId",
		"grade":         "grade",
		"section":       "section",
		"date_of_birth": "dateOfBirth",
		"created_at":    "createdAt",
	}
)

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) CreateStudent(ctx context.Context, stu student.Student, exec ...core.DBExecutor) (student.Student, error) {
	stu.ID = uuid.New().String()
	if _, err := sqlx.NamedExecContext(ctx, getExec(repo.exec, exec), insertStudentQuery, stu); err != nil {
		return student.Student{}, trapConstraintErr(err, "studentId", student.ErrStudentIDExists, "inserting student")
	}
	return stu, nil
}

func (repo studentRepository) QueryStudents(
	ctx context.Context,
	filter *student.QueryFilter,
	ordering []core.DBOrdering,
	exec ...core.DBExecutor,
) ([]student.Student, error) {
	q := sq.Select(studentColumns...).From("students")

	if filter != nil {
		if filter.Grade != "" {
			q = q.Where(sq.Eq{"grade": filter.Grade})
		}
		if filter.Section != "" {
			q = q.Where(sq.Eq{"section": filter.Section})
		}
		// students with FirstName, LastName or StudentID matching the search keyword
		if filter.Search != "" {
			q = q.Where(likeAny(filter.Search, "firstName", "lastName", "studentId"))
		}
	}
	q = q.OrderBy(append(orderBy(ordering, studentOrderingColumns, "firstName ASC"), "rowid ASC")...)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building students query")
	}
	students := make([]student.Student, 0)
	if err = getExec(repo.exec, exec).SelectContext(ctx, &students, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, filter student.GetFilter, exec ...core.DBExecutor) (student.Student, error) {
	q := sq.Select(studentColumns...).From("students")
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return student.Student{}, student.ErrNotFound
		}
		q = q.Where(sq.Eq{"id": filter.ID})
	case filter.StudentID != "":
		q = q.Where(sq.Eq{"studentId": filter.StudentID})
	default:
		return student.Student{}, student.ErrNotFound
	}

	query, args, err := q.ToSql()
	if err != nil {
		return student.Student{}, errors.Wrap(err, "building student query")
	}
	var stu student.Student
	if err = getExec(repo.exec, exec).GetContext(ctx, &stu, query, args...); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student")
	}
	return stu, nil
}

func (repo studentRepository) CountStudents(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var cnt int
	if err := getExec(repo.exec, exec).GetContext(ctx, &cnt, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return cnt, nil
}

func (repo studentRepository) CountClasses(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var cnt int
	query := `SELECT COUNT(*) FROM (SELECT DISTINCT grade, section FROM students)`
	if err := getExec(repo.exec, exec).GetContext(ctx, &cnt, query); err != nil {
		return 0, errors.Wrap(err, "counting classes")
	}
	return cnt, nil
}

func (repo studentRepository) QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]student.Class, error) {
	query := `
		SELECT grade, section, COUNT(*) AS students
		FROM students
		GROUP BY grade, section
		ORDER BY grade, section`
	classes := make([]student.Class, 0)
	if err := getExec(repo.exec, exec).SelectContext(ctx, &classes, query); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return classes, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) (int, error) {
	res, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return 0, errors.Wrap(err, "deleting student")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting student")
	}
	return int(cnt), nil
}
