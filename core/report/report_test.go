package report_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/activity"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/report"
	logsvc "github.com/trezcool/shule/services/logger"
	metricsvc "github.com/trezcool/shule/services/metrics"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
	"github.com/trezcool/shule/tests"
)

func setup(t *testing.T) (*sqlx.DB, report.Service, activity.Service) {
	db := testutil.PrepareDB(t)
	actSvc := activity.NewService(sqlxrepos.NewActivityRepository(db))
	svc := report.NewService(
		db,
		sqlxrepos.NewStudentRepository(db),
		sqlxrepos.NewAttendanceRepository(db),
		actSvc,
		metricsvc.Nop{},
		logsvc.NewDiscardLogger(),
	)
	return db, svc, actSvc
}

func Test_service_StudentReport(t *testing.T) {
	ctx := context.Background()
	db, svc, actSvc := setup(t)
	stu := testutil.CreateStudent(t, db, "Amani", "Kabila", "S001", "5", "A")

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.StudentReport(ctx, "S404")
		require.Error(t, err)
		assert.Equal(t, report.ErrStudentNotFound, errors.Cause(err))
		assert.True(t, core.IsNotFound(err))
		assert.Equal(t, 0, testutil.CountRows(t, db, "activities"))
	})

	t.Run("no attendance yet", func(t *testing.T) {
		rep, err := svc.StudentReport(ctx, "S001")
		require.NoError(t, err)
		assert.True(t, rep.Success)
		assert.Equal(t, "Report generated successfully", rep.Message)
		assert.Equal(t, stu, rep.Student)
		assert.NotNil(t, rep.Attendance)
		assert.Empty(t, rep.Attendance)
	})

	r1 := testutil.CreateAttendance(t, db, stu.ID, "2024-01-15", true)
	r2 := testutil.CreateAttendance(t, db, stu.ID, "2024-01-16", false)

	rep, err := svc.StudentReport(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, []attendance.Record{r2, r1}, rep.Attendance)

	acts, err := actSvc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, "Generated student report for Amani Kabila", acts[0].Description)
}

func Test_service_AttendanceReport(t *testing.T) {
	ctx := context.Background()
	db, svc, actSvc := setup(t)
	zawadi := testutil.CreateStudent(t, db, "Zawadi", "Mukendi", "S003", "5", "A")
	amani := testutil.CreateStudent(t, db, "Amani", "Kabila", "S001", "5", "A")
	testutil.CreateAttendance(t, db, zawadi.ID, "2024-01-15", true)
	testutil.CreateAttendance(t, db, amani.ID, "2024-01-15", false)
	testutil.CreateAttendance(t, db, amani.ID, "2024-01-16", true)
	testutil.CreateAttendance(t, db, amani.ID, "2024-02-01", true) // out of range

	for _, class := range []struct{ name, grade, section string }{
		{name: "empty class", grade: "9", section: "Z"},
		{name: "blank class"},
		{name: "blank section", grade: "5"},
		{name: "blank grade", grade: " ", section: "A"},
	} {
		t.Run(class.name, func(t *testing.T) {
			_, err := svc.AttendanceReport(ctx, report.ClassReportRequest{
				Grade: class.grade, Section: class.section, StartDate: "2024-01-01", EndDate: "2024-01-31",
			})
			require.Error(t, err)
			assert.Equal(t, report.ErrNoStudents, errors.Cause(err))
			assert.Equal(t, 0, testutil.CountRows(t, db, "activities"))
		})
	}

	rep, err := svc.AttendanceReport(ctx, report.ClassReportRequest{
		Grade: "5", Section: "A", StartDate: "2024-01-01", EndDate: "2024-01-31",
	})
	require.NoError(t, err)
	assert.True(t, rep.Success)
	require.Len(t, rep.AttendanceData, 3)
	assert.Equal(t, "Amani", rep.AttendanceData[0].FirstName)
	assert.Equal(t, "2024-01-15", rep.AttendanceData[0].Date)
	assert.Equal(t, "Zawadi", rep.AttendanceData[1].FirstName)
	assert.Equal(t, "2024-01-16", rep.AttendanceData[2].Date)

	assert.Equal(t, []report.StudentSummary{
		{StudentID: amani.ID, StudentIDNumber: "S001", FirstName: "Amani", LastName: "Kabila", Present: 1, Absent: 1, Rate: 50},
		{StudentID: zawadi.ID, StudentIDNumber: "S003", FirstName: "Zawadi", LastName: "Mukendi", Present: 1, Rate: 100},
	}, rep.Summary)

	acts, err := actSvc.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "Generated attendance report for Grade 5 Section A (2024-01-01 to 2024-01-31)", acts[0].Description)

	t.Run("no records in range", func(t *testing.T) {
		rep, err := svc.AttendanceReport(ctx, report.ClassReportRequest{
			Grade: "5", Section: "A", StartDate: "2023-01-01", EndDate: "2023-01-31",
		})
		require.NoError(t, err)
		assert.NotNil(t, rep.AttendanceData)
		assert.Empty(t, rep.AttendanceData)
		require.Len(t, rep.Summary, 2)
		assert.Equal(t, float64(100), rep.Summary[0].Rate)
	})
}

func Test_service_Stats(t *testing.T) {
	ctx := context.Background()
	db, svc, actSvc := setup(t)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.Stats{AttendanceRate: 100, RecentActivities: []activity.Activity{}}, stats)

	amani := testutil.CreateStudent(t, db, "Amani", "Kabila", "S001", "5", "A")
	testutil.CreateStudent(t, db, "Baraka", "Ilunga", "S002", "5", "B")
	testutil.CreateAttendance(t, db, amani.ID, "2024-01-15", true)
	testutil.CreateAttendance(t, db, amani.ID, "2024-01-16", false)
	for i := 0; i < 7; i++ {
		_, err := actSvc.Record(ctx, db, "activity")
		require.NoError(t, err)
	}

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 2, stats.TotalClasses)
	assert.Equal(t, float64(50), stats.AttendanceRate)
	assert.Len(t, stats.RecentActivities, activity.DefaultLimit)
}

func TestClassReportRequest_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator()

	tests := []struct {
		name       string
		req        report.ClassReportRequest
		wantFields map[string]string
	}{
		{name: "valid", req: report.ClassReportRequest{Grade: "5", Section: "A", StartDate: "2024-01-01", EndDate: "2024-01-31"}},
		{name: "same day", req: report.ClassReportRequest{Grade: "5", Section: "A", StartDate: "2024-01-01", EndDate: "2024-01-01"}},
		{
			name:       "reversed range",
			req:        report.ClassReportRequest{Grade: "5", Section: "A", StartDate: "2024-01-31", EndDate: "2024-01-01"},
			wantFields: map[string]string{"endDate": "end date must not be before start date"},
		},
		{
			name:       "bad date",
			req:        report.ClassReportRequest{Grade: "5", Section: "A", StartDate: "2024-01-32", EndDate: "2024-01-01"},
			wantFields: map[string]string{"startDate": "date must be formatted as YYYY-MM-DD"},
		},
		{
			name:       "missing class",
			req:        report.ClassReportRequest{StartDate: "2024-01-01", EndDate: "2024-01-31"},
			wantFields: map[string]string{"grade": "this field is required", "section": "this field is required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(validate)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)
			got := make(map[string]string, len(vErrs))
			for _, vErr := range vErrs {
				got[vErr.Field()] = vErr.Translate(translator)
			}
			assert.Equal(t, tt.wantFields, got)
		})
	}
}
