package activity

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

const (
	DefaultLimit = 5
	MaxLimit     = 100
)

// Kind classifies activities for metrics; it is not persisted.
type Kind string

const (
	KindStudentAdded     Kind = "student_added"
	KindStudentDeleted   Kind = "student_deleted"
	KindAttendanceTaken  Kind = "attendance_taken"
	KindStudentReport    Kind = "student_report"
	KindAttendanceReport Kind = "attendance_report"
)

// Activity is an entry of the append-only activity log.
type Activity struct {
	ID          string `db:"id" json:"id"`
	Description string `db:"description" json:"description"`
	Timestamp   string `db:"timestamp" json:"timestamp"` // TimestampLayout, UTC
}

type (
	Repository interface {
		CreateActivity(ctx context.Context, act Activity, exec ...core.DBExecutor) (Activity, error)
		QueryRecentActivities(ctx context.Context, limit int, exec ...core.DBExecutor) ([]Activity, error)
	}

	// Recorder appends activities, usually within the caller's transaction.
	Recorder interface {
		Record(ctx context.Context, exec core.DBExecutor, description string) (Activity, error)
	}

	Service interface {
		Recorder
		Recent(ctx context.Context, limit int) ([]Activity, error)
	}

	service struct {
		repo Repository
		now  func() time.Time
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (svc *service) Record(ctx context.Context, exec core.DBExecutor, description string) (Activity, error) {
	act := Activity{
		Description: description,
		Timestamp:   core.FormatTimestamp(svc.now()),
	}
	act, err := svc.repo.CreateActivity(ctx, act, exec)
	if err != nil {
		return Activity{}, errors.Wrap(err, "logging activity")
	}
	return act, nil
}

// Recent returns the latest activities, newest first.
// limit defaults to DefaultLimit and is capped at MaxLimit.
func (svc *service) Recent(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}
	return svc.repo.QueryRecentActivities(ctx, limit)
}
