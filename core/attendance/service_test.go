package attendance_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/activity"
	"github.com/trezcool/shule/core/attendance"
	logsvc "github.com/trezcool/shule/services/logger"
	metricsvc "github.com/trezcool/shule/services/metrics"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
	"github.com/trezcool/shule/tests"
)

func Test_service_Save(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	actSvc := activity.NewService(sqlxrepos.NewActivityRepository(db))
	metrics := metricsvc.NewPrometheusMetrics()
	svc := attendance.NewService(db, sqlxrepos.NewAttendanceRepository(db), actSvc, metrics, logsvc.NewDiscardLogger())

	amani := testutil.CreateStudent(t, db, "Amani", "Kabila", "S001", "5", "A")
	baraka := testutil.CreateStudent(t, db, "Baraka", "Ilunga", "S002", "5", "A")
	neema := testutil.CreateStudent(t, db, "Neema", "Ngoy", "S003", "5", "A")

	rate, err := svc.Rate(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(100), rate)

	records, err := svc.Save(ctx, attendance.Batch{Records: []attendance.NewRecord{
		{StudentID: amani.ID, Date: "2024-01-15", IsPresent: testutil.BoolPtr(true)},
		{StudentID: baraka.ID, Date: "2024-01-15", IsPresent: testutil.BoolPtr(false)},
		{StudentID: neema.ID, Date: "2024-01-15", IsPresent: testutil.BoolPtr(true)},
	}})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, amani.ID, records[0].StudentID)
	assert.False(t, records[1].IsPresent)
	assert.Equal(t, 3, testutil.CountRows(t, db, "attendance"))

	acts, err := actSvc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "Took attendance for 3 students on 2024-01-15", acts[0].Description)

	rate, err = svc.Rate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 66.7, rate)

	t.Run("unknown student rolls everything back", func(t *testing.T) {
		_, err := svc.Save(ctx, attendance.Batch{Records: []attendance.NewRecord{
			{StudentID: amani.ID, Date: "2024-01-16", IsPresent: testutil.BoolPtr(true)},
			{StudentID: "ghost", Date: "2024-01-16", IsPresent: testutil.BoolPtr(true)},
		}})
		require.Error(t, err)
		assert.True(t, core.IsConstraint(err, core.ConstraintForeignKey))
		assert.Equal(t, 3, testutil.CountRows(t, db, "attendance"))
		assert.Equal(t, 1, testutil.CountRows(t, db, "activities"))
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := svc.Save(ctx, attendance.Batch{})
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		require.True(t, ok)
		assert.Equal(t, attendance.ErrEmptyBatch, vErr.Err)
	})

	t.Run("taking attendance twice appends", func(t *testing.T) {
		_, err := svc.Save(ctx, attendance.Batch{Records: []attendance.NewRecord{
			{StudentID: baraka.ID, Date: "2024-01-15", IsPresent: testutil.BoolPtr(true)},
		}})
		require.NoError(t, err)
		assert.Equal(t, 4, testutil.CountRows(t, db, "attendance"))
		assert.Equal(t, 2, testutil.CountRows(t, db, "activities"))
	})
}

func Test_service_Save_rejects(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	actSvc := activity.NewService(sqlxrepos.NewActivityRepository(db))
	svc := attendance.NewService(db, sqlxrepos.NewAttendanceRepository(db), actSvc, metricsvc.Nop{}, logsvc.NewDiscardLogger())

	amani := testutil.CreateStudent(t, db, "Amani", "Kabila", "S001", "5", "A")
	baraka := testutil.CreateStudent(t, db, "Baraka", "Ilunga", "S002", "5", "A")
	yes := testutil.BoolPtr(true)

	tests := []struct {
		name    string
		records []attendance.NewRecord
		wantErr error
	}{
		{
			name: "mixed dates",
			records: []attendance.NewRecord{
				{StudentID: amani.ID, Date: "2024-01-15", IsPresent: yes},
				{StudentID: baraka.ID, Date: "2024-02-20", IsPresent: yes},
			},
			wantErr: attendance.ErrMixedDates,
		},
		{
			name: "same student twice",
			records: []attendance.NewRecord{
				{StudentID: amani.ID, Date: "2024-01-15", IsPresent: yes},
				{StudentID: " " + amani.ID, Date: "2024-01-15", IsPresent: yes},
			},
			wantErr: attendance.ErrDuplicateRecord,
		},
		{
			name: "missing presence",
			records: []attendance.NewRecord{
				{StudentID: amani.ID, Date: "2024-01-15"},
				{StudentID: baraka.ID, Date: "2024-01-15", IsPresent: yes},
			},
			wantErr: attendance.ErrMissingPresence,
		},
		{
			name:    "bad date",
			records: []attendance.NewRecord{{StudentID: amani.ID, Date: "15/01/2024", IsPresent: yes}},
			wantErr: attendance.ErrInvalidDate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := svc.Save(ctx, attendance.Batch{Records: tt.records})
			assert.Nil(t, records)
			vErr, ok := errors.Cause(err).(*core.ValidationError)
			if assert.True(t, ok, "want *core.ValidationError, got %v", err) {
				assert.Equal(t, tt.wantErr, vErr.Err)
			}
			assert.Equal(t, 0, testutil.CountRows(t, db, "attendance"))
			assert.Equal(t, 0, testutil.CountRows(t, db, "activities"))
		})
	}
}

func Test_service_Save_concurrent(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	actSvc := activity.NewService(sqlxrepos.NewActivityRepository(db))
	svc := attendance.NewService(db, sqlxrepos.NewAttendanceRepository(db), actSvc, metricsvc.NewPrometheusMetrics(), logsvc.NewDiscardLogger())

	amani := testutil.CreateStudent(t, db, "Amani", "Kabila", "S001", "5", "A")
	baraka := testutil.CreateStudent(t, db, "Baraka", "Ilunga", "S002", "5", "A")

	const batches = 4
	errs := make(chan error, batches)
	var wg sync.WaitGroup
	for i := 0; i < batches; i++ {
		date := fmt.Sprintf("2024-01-%02d", i+10)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Save(ctx, attendance.Batch{Records: []attendance.NewRecord{
				{StudentID: amani.ID, Date: date, IsPresent: testutil.BoolPtr(true)},
				{StudentID: baraka.ID, Date: date, IsPresent: testutil.BoolPtr(false)},
			}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 2*batches, testutil.CountRows(t, db, "attendance"))
	assert.Equal(t, batches, testutil.CountRows(t, db, "activities"))
	for i := 0; i < batches; i++ {
		date := fmt.Sprintf("2024-01-%02d", i+10)

		var rows int
		require.NoError(t, db.GetContext(ctx, &rows, "SELECT COUNT(*) FROM attendance WHERE date = ?", date))
		assert.Equal(t, 2, rows, date)

		var acts int
		desc := "Took attendance for 2 students on " + date
		require.NoError(t, db.GetContext(ctx, &acts, "SELECT COUNT(*) FROM activities WHERE description = ?", desc))
		assert.Equal(t, 1, acts, date)
	}
}
