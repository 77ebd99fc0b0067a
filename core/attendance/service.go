package attendance

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/activity"
)

type (
	Repository interface {
		// CreateRecords inserts one row per record; it does not open a transaction itself.
		CreateRecords(ctx context.Context, records []Record, exec ...core.DBExecutor) ([]Record, error)
		CountRecords(ctx context.Context, exec ...core.DBExecutor) (Counts, error)
		// QueryStudentHistory returns the records of the student with the given business key, newest first.
		QueryStudentHistory(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]Record, error)
		// QueryClassAttendance returns the class's records within the date range, ordered by date then first name.
		QueryClassAttendance(ctx context.Context, filter ClassFilter, exec ...core.DBExecutor) ([]ClassRow, error)
	}

	Service interface {
		Save(ctx context.Context, batch Batch) ([]Record, error)
		Rate(ctx context.Context) (float64, error)
	}

	service struct {
		db         core.DB
		repo       Repository
		activities activity.Recorder
		metrics    core.Metrics
		logger     core.Logger
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
	}
}

// Save records a Batch and its activity entry in a single transaction:
// either every row is written or none is. Batches that are empty, span several
// dates, repeat a student or omit a presence are rejected before any write.
func (svc *service) Save(ctx context.Context, batch Batch) ([]Record, error) {
	if err := batch.check(); err != nil {
		return nil, err
	}

	date := batch.Date()
	records := make([]Record, 0, len(batch.Records))
	var present int
	for _, nr := range batch.Records {
		rec := Record{StudentID: core.CleanString(nr.StudentID), Date: date, IsPresent: *nr.IsPresent}
		if rec.IsPresent {
			present++
		}
		records = append(records, rec)
	}

	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if records, err = svc.repo.CreateRecords(ctx, records, tx); err != nil {
			return err
		}
		desc := fmt.Sprintf("Took attendance for %d students on %s", len(records), date)
		_, err = svc.activities.Record(ctx, tx, desc)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "saving attendance")
	}

	svc.metrics.AttendanceRecorded(present, len(records)-present)
	svc.metrics.ActivityLogged(string(activity.KindAttendanceTaken))
	svc.logger.Info("attendance saved", map[string]interface{}{"date": date, "records": len(records)})
	return records, nil
}

// Rate is the percentage of present records over all attendance ever taken.
func (svc *service) Rate(ctx context.Context) (float64, error) {
	counts, err := svc.repo.CountRecords(ctx)
	if err != nil {
		return 0, err
	}
	return counts.Rate(), nil
}
