package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

type attendanceRepository struct {
	exec core.DBExecutor
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{exec: exec}
}

func (repo attendanceRepository) CreateRecords(ctx context.Context, records []attendance.Record, exec ...core.DBExecutor) ([]attendance.Record, error) {
	if len(records) == 0 {
		return records, nil
	}

	stmt, err := getExec(repo.exec, exec).PreparexContext(ctx,
		`INSERT INTO attendance (id, studentId, date, isPresent) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, errors.Wrap(err, "preparing attendance insert")
	}
	defer stmt.Close()

	created := make([]attendance.Record, 0, len(records))
	for _, rec := range records {
		rec.ID = uuid.New().String()
		if _, err = stmt.ExecContext(ctx, rec.ID, rec.StudentID, rec.Date, rec.IsPresent); err != nil {
			return nil, trapConstraintErr(err, "studentId", nil, "inserting attendance record")
		}
		created = append(created, rec)
	}
	return created, nil
}

func (repo attendanceRepository) CountRecords(ctx context.Context, exec ...core.DBExecutor) (attendance.Counts, error) {
	var counts attendance.Counts
	query := `SELECT COUNT(*) AS total, COALESCE(SUM(isPresent), 0) AS present FROM attendance`
	if err := getExec(repo.exec, exec).GetContext(ctx, &counts, query); err != nil {
		return attendance.Counts{}, errors.Wrap(err, "counting attendance records")
	}
	return counts, nil
}

func (repo attendanceRepository) QueryStudentHistory(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]attendance.Record, error) {
	query := `
		SELECT a.id, a.studentId, a.date, a.isPresent
		FROM attendance a
		JOIN students s ON a.studentId = s.id
		WHERE s.studentId = ?
		ORDER BY a.date DESC, a.rowid DESC`
	records := make([]attendance.Record, 0)
	if err := getExec(repo.exec, exec).SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student attendance")
	}
	return records, nil
}

func (repo attendanceRepository) QueryClassAttendance(ctx context.Context, filter attendance.ClassFilter, exec ...core.DBExecutor) ([]attendance.ClassRow, error) {
	query, args, err := sq.
		Select("a.id", "a.studentId", "a.date", "a.isPresent", "s.firstName", "s.lastName", "s.studentId AS studentIdNumber").
		From("attendance a").
		Join("students s ON a.studentId = s.id").
		Where(sq.Eq{"s.grade": filter.Grade, "s.section": filter.Section}).
		Where(sq.GtOrEq{"a.date": filter.StartDate}).
		Where(sq.LtOrEq{"a.date": filter.EndDate}).
		OrderBy("a.date ASC", "s.firstName ASC", "a.rowid ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building class attendance query")
	}

	rows := make([]attendance.ClassRow, 0)
	if err = getExec(repo.exec, exec).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying class attendance")
	}
	return rows, nil
}
