package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/activity"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("student not found")
	ErrStudentIDExists = errors.New("a student with this student ID already exists")
	errClassRequired   = errors.New("grade and section are required")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, stu Student, exec ...core.DBExecutor) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of FirstName, LastName or StudentID.
		// Results are ordered by first name unless ordering is given.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Student, error)
		GetStudent(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Student, error)
		CountStudents(ctx context.Context, exec ...core.DBExecutor) (int, error)
		CountClasses(ctx context.Context, exec ...core.DBExecutor) (int, error)
		QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]Class, error)
		DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Create(ctx context.Context, ns NewStudent) (Student, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		QueryClass(ctx context.Context, grade, section string) ([]Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		GetByStudentID(ctx context.Context, studentID string) (Student, error)
		Count(ctx context.Context) (int, error)
		CountClasses(ctx context.Context) (int, error)
		Classes(ctx context.Context) ([]Class, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		db         core.DB
		repo       Repository
		activities activity.Recorder
		metrics    core.Metrics
		logger     core.Logger
		now        func() time.Time
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(db core.DB, repo Repository, activities activity.Recorder, metrics core.Metrics, logger core.Logger) Service {
	return &service{
		db:         db,
		repo:       repo,
		activities: activities,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Create inserts the student and its activity entry atomically.
// A duplicate business key fails with a core.ConstraintError and writes nothing.
func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	stu := Student{
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		StudentID:   ns.StudentID,
		Grade:       ns.Grade,
		Section:     ns.Section,
		Gender:      ns.Gender,
		DateOfBirth: ns.DateOfBirth,
		CreatedAt:   core.FormatTimestamp(svc.now()),
	}

	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if stu, err = svc.repo.CreateStudent(ctx, stu, tx); err != nil {
			return err
		}
		_, err = svc.activities.Record(ctx, tx, "Added new student: "+stu.FullName())
		return err
	})
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}

	svc.metrics.ActivityLogged(string(activity.KindStudentAdded))
	svc.logger.Info("student added", map[string]interface{}{"id": stu.ID, "studentId": stu.StudentID})
	return stu, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

// QueryClass returns the roster of a class, ordered by first name.
func (svc *service) QueryClass(ctx context.Context, grade, section string) ([]Student, error) {
	filter := &QueryFilter{Grade: grade, Section: section}
	filter.Clean()
	if filter.Grade == "" || filter.Section == "" {
		return nil, core.NewValidationError(errClassRequired)
	}
	return svc.repo.QueryStudents(ctx, filter, nil)
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{ID: core.CleanString(id)})
}

func (svc *service) GetByStudentID(ctx context.Context, studentID string) (Student, error) {
	return svc.repo.GetStudent(ctx, GetFilter{StudentID: core.CleanString(studentID)})
}

func (svc *service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountStudents(ctx)
}

func (svc *service) CountClasses(ctx context.Context) (int, error) {
	return svc.repo.CountClasses(ctx)
}

func (svc *service) Classes(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryClasses(ctx)
}

// Delete removes the student (and, by cascade, its attendance) then logs the deletion.
// An unknown id fails with ErrNotFound and logs nothing.
func (svc *service) Delete(ctx context.Context, id string) error {
	var stu Student
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if stu, err = svc.repo.GetStudent(ctx, GetFilter{ID: core.CleanString(id)}, tx); err != nil {
			return err
		}
		cnt, err := svc.repo.DeleteStudent(ctx, stu.ID, tx)
		if err != nil {
			return err
		}
		if cnt == 0 {
			return ErrNotFound
		}
		_, err = svc.activities.Record(ctx, tx, "Deleted student: "+stu.FullName())
		return err
	})
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}

	svc.metrics.ActivityLogged(string(activity.KindStudentDeleted))
	svc.logger.Info("student deleted", map[string]interface{}{"id": stu.ID, "studentId": stu.StudentID})
	return nil
}
