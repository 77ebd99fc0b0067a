package report

import (
	"context"
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/activity"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/student"
)

const successMessage = "Report generated successfully"

var (
	// errors
	ErrStudentNotFound = core.NewNotFoundError("Student not found")
	ErrNoStudents      = core.NewNotFoundError("No students found in this class")

	dateRangeTag  = "daterange"
	dateRangeText = "end date must not be before start date"
)

// StudentReport is the attendance history of one student, newest first.
type StudentReport struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Student    student.Student     `json:"student"`
	Attendance []attendance.Record `json:"attendance"`
}

// StudentSummary aggregates a roster member's attendance over the report range.
type StudentSummary struct {
	StudentID       string  `json:"studentId"`
	StudentIDNumber string  `json:"studentIdNumber"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Present         int     `json:"present"`
	Absent          int     `json:"absent"`
	Rate            float64 `json:"rate"`
}

// ClassReport is a class's attendance over an inclusive date range.
type ClassReport struct {
	Success        bool                  `json:"success"`
	Message        string                `json:"message"`
	AttendanceData []attendance.ClassRow `json:"attendanceData"`
	Summary        []StudentSummary      `json:"summary"`
}

// ClassReportRequest contains information needed to generate a ClassReport.
type ClassReportRequest struct {
	Grade     string `json:"grade" query:"grade" validate:"required,notblank"`
	Section   string `json:"section" query:"section" validate:"required,notblank"`
	StartDate string `json:"startDate" query:"startDate" validate:"required,isodate"`
	EndDate   string `json:"endDate" query:"endDate" validate:"required,isodate"`
}

func (req *ClassReportRequest) Validate(validate *validator.Validate) error {
	req.Grade = core.CleanString(req.Grade)
	req.Section = core.CleanString(req.Section)
	req.StartDate = core.CleanString(req.StartDate)
	req.EndDate = core.CleanString(req.EndDate)
	return validate.Struct(req)
}

// Stats feeds the dashboard.
type Stats struct {
	TotalStudents    int                 `json:"totalStudents"`
	TotalClasses     int                 `json:"totalClasses"`
	AttendanceRate   float64             `json:"attendanceRate"`
	RecentActivities []activity.Activity `json:"recentActivities"`
}

// InitValidators registers the report validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(classReportStructValidation, ClassReportRequest{})
	core.RegisterCustomTranslation(validate, translator, dateRangeTag, dateRangeText)
}

// classReportStructValidation checks that the date range is not reversed.
// ISO dates compare lexicographically.
func classReportStructValidation(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(ClassReportRequest)
	if !ok || !core.IsDate(req.StartDate) || !core.IsDate(req.EndDate) {
		return
	}
	if req.EndDate < req.StartDate {
		sl.ReportError(req.EndDate, "endDate", "EndDate", dateRangeTag, "")
	}
}

type (
	Service interface {
		StudentReport(ctx context.Context, studentID string) (StudentReport, error)
		AttendanceReport(ctx context.Context, req ClassReportRequest) (ClassReport, error)
		Stats(ctx context.Context) (Stats, error)
	}

	service struct {
		db         core.DB
		students   student.Repository
		attendance attendance.Repository
		activities activity.Service
		metrics    core.Metrics
		logger     core.Logger
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(
	db core.DB,
	students student.Repository,
	attendanceRepo attendance.Repository,
	activities activity.Service,
	metrics core.Metrics,
	logger core.Logger,
) Service {
	return &service{
		db:         db,
		students:   students,
		attendance: attendanceRepo,
		activities: activities,
		metrics:    metrics,
		logger:     logger,
	}
}

// StudentReport looks the student up by business key. An unknown key fails with
// ErrStudentNotFound and logs nothing.
func (svc *service) StudentReport(ctx context.Context, studentID string) (StudentReport, error) {
	studentID = core.CleanString(studentID)
	rep := StudentReport{Success: true, Message: successMessage}

	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if rep.Student, err = svc.students.GetStudent(ctx, student.GetFilter{StudentID: studentID}, tx); err != nil {
			if errors.Cause(err) == student.ErrNotFound {
				return ErrStudentNotFound
			}
			return err
		}
		if rep.Attendance, err = svc.attendance.QueryStudentHistory(ctx, studentID, tx); err != nil {
			return err
		}
		_, err = svc.activities.Record(ctx, tx, "Generated student report for "+rep.Student.FullName())
		return err
	})
	if err != nil {
		return StudentReport{}, errors.Wrap(err, "generating student report")
	}
	if rep.Attendance == nil {
		rep.Attendance = []attendance.Record{}
	}

	svc.metrics.ActivityLogged(string(activity.KindStudentReport))
	svc.logger.Info("student report generated", map[string]interface{}{"studentId": studentID, "records": len(rep.Attendance)})
	return rep, nil
}

// AttendanceReport fails with ErrNoStudents, logging nothing, when the class is empty.
// A blank grade or section names no class. req is expected to be validated.
func (svc *service) AttendanceReport(ctx context.Context, req ClassReportRequest) (ClassReport, error) {
	req.Grade = core.CleanString(req.Grade)
	req.Section = core.CleanString(req.Section)
	if req.Grade == "" || req.Section == "" {
		return ClassReport{}, errors.Wrap(ErrNoStudents, "generating attendance report")
	}
	rep := ClassReport{Success: true, Message: successMessage}

	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		roster, err := svc.students.QueryStudents(ctx, &student.QueryFilter{Grade: req.Grade, Section: req.Section}, nil, tx)
		if err != nil {
			return err
		}
		if len(roster) == 0 {
			return ErrNoStudents
		}

		filter := attendance.ClassFilter{Grade: req.Grade, Section: req.Section, StartDate: req.StartDate, EndDate: req.EndDate}
		if rep.AttendanceData, err = svc.attendance.QueryClassAttendance(ctx, filter, tx); err != nil {
			return err
		}
		rep.Summary = summarize(roster, rep.AttendanceData)

		desc := fmt.Sprintf("Generated attendance report for Grade %s Section %s (%s to %s)",
			req.Grade, req.Section, req.StartDate, req.EndDate)
		_, err = svc.activities.Record(ctx, tx, desc)
		return err
	})
	if err != nil {
		return ClassReport{}, errors.Wrap(err, "generating attendance report")
	}
	if rep.AttendanceData == nil {
		rep.AttendanceData = []attendance.ClassRow{}
	}

	svc.metrics.ActivityLogged(string(activity.KindAttendanceReport))
	svc.logger.Info("attendance report generated", map[string]interface{}{
		"grade": req.Grade, "section": req.Section, "from": req.StartDate, "to": req.EndDate, "records": len(rep.AttendanceData),
	})
	return rep, nil
}

// summarize counts each roster member's records, keeping roster order (first name).
func summarize(roster []student.Student, rows []attendance.ClassRow) []StudentSummary {
	idx := make(map[string]int, len(roster))
	summary := make([]StudentSummary, 0, len(roster))
	for i, stu := range roster {
		idx[stu.ID] = i
		summary = append(summary, StudentSummary{
			StudentID:       stu.ID,
			StudentIDNumber: stu.StudentID,
			FirstName:       stu.FirstName,
			LastName:        stu.LastName,
		})
	}
	for _, row := range rows {
		i, ok := idx[row.StudentID]
		if !ok {
			continue
		}
		if row.IsPresent {
			summary[i].Present++
		} else {
			summary[i].Absent++
		}
	}
	for i := range summary {
		summary[i].Rate = attendance.Rate(summary[i].Present, summary[i].Present+summary[i].Absent)
	}
	return summary
}

func (svc *service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var err error

	if stats.TotalStudents, err = svc.students.CountStudents(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting students")
	}
	if stats.TotalClasses, err = svc.students.CountClasses(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting classes")
	}
	counts, err := svc.attendance.CountRecords(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting attendance")
	}
	stats.AttendanceRate = counts.Rate()
	if stats.RecentActivities, err = svc.activities.Recent(ctx, activity.DefaultLimit); err != nil {
		return Stats{}, errors.Wrap(err, "querying recent activities")
	}
	if stats.RecentActivities == nil {
		stats.RecentActivities = []activity.Activity{}
	}
	return stats, nil
}
