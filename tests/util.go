package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/student"
	"github.com/trezcool/shule/storage/database"
)

// NewConfig returns a test Config pointing to a fresh database file in a temp dir.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		Debug:    false,
		TestMode: true,
		AppName:  "Shule",
		Env:      "TEST",
		Build:    "test",
		Server: core.ServerConfig{
			Host:            "localhost",
			Address:         ":0",
			ShutdownTimeout: time.Second,
			DisableReqLogs:  true,
		},
		Database: core.DatabaseConfig{
			Path: filepath.Join(t.TempDir(), "shule.db"),
		},
	}
}

// PrepareDB sets up an empty, migrated database closed at the end of the test.
func PrepareDB(t *testing.T, conf ...*core.Config) *sqlx.DB {
	t.Helper()
	var cfg *core.Config
	if len(conf) > 0 {
		cfg = conf[0]
	} else {
		cfg = NewConfig(t)
	}

	db, err := database.Setup(cfg)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("db.Close() failed: %v", err)
		}
	})
	return db
}

// NewValidator returns a validator with every app validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	report.InitValidators(validate, translator)
	return validate, translator
}

// CreateStudent inserts a student directly, bypassing services (no activity is logged).
func CreateStudent(t *testing.T, db core.DBExecutor, firstName, lastName, studentID, grade, section string) student.Student {
	t.Helper()
	stu := student.Student{
		ID:          uuid.New().String(),
		FirstName:   firstName,
		LastName:    lastName,
		StudentID:   studentID,
		Grade:       grade,
		Section:     section,
		Gender:      "female",
		DateOfBirth: "2012-05-04",
		CreatedAt:   core.FormatTimestamp(time.Now()),
	}
	_, err := db.ExecContext(
		context.Background(),
		`INSERT INTO students (id, firstName, lastName, studentId, grade, section, gender, dateOfBirth, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stu.ID, stu.FirstName, stu.LastName, stu.StudentID, stu.Grade, stu.Section, stu.Gender, stu.DateOfBirth, stu.CreatedAt,
	)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return stu
}

// CreateAttendance inserts one attendance record for the student with the given internal id.
func CreateAttendance(t *testing.T, db core.DBExecutor, studentID, date string, isPresent bool) attendance.Record {
	t.Helper()
	rec := attendance.Record{
		ID:        uuid.New().String(),
		StudentID: studentID,
		Date:      date,
		IsPresent: isPresent,
	}
	_, err := db.ExecContext(
		context.Background(),
		`INSERT INTO attendance (id, studentId, date, isPresent) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.StudentID, rec.Date, rec.IsPresent,
	)
	if err != nil {
		t.Fatalf("CreateAttendance() failed: %v", err)
	}
	return rec
}

// CountRows counts the rows of table.
func CountRows(t *testing.T, db core.DBExecutor, table string) int {
	t.Helper()
	var cnt int
	if err := db.GetContext(context.Background(), &cnt, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("CountRows(%s) failed: %v", table, err)
	}
	return cnt
}

func BoolPtr(b bool) *bool { return &b }
