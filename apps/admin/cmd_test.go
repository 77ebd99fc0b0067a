package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/student"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/tests"
)

// ttyBuffer passes for a terminal when isTerminalFunc is mocked.
type ttyBuffer struct {
	bytes.Buffer
}

func (*ttyBuffer) Fd() uintptr { return 1 }

func setup(t *testing.T) (*commandLine, *bytes.Buffer, *core.Config) {
	conf := testutil.NewConfig(t)
	db := testutil.PrepareDB(t, conf)

	amani := testutil.CreateStudent(t, db, "Amani", "Kabila", "S001", "5", "A")
	testutil.CreateStudent(t, db, "Baraka", "Ilunga", "S002", "5", "A")
	testutil.CreateStudent(t, db, "Neema", "Ngoy", "S003", "6", "B")
	testutil.CreateAttendance(t, db, amani.ID, "2024-01-15", true)
	testutil.CreateAttendance(t, db, amani.ID, "2024-01-16", false)

	out := new(bytes.Buffer)
	cli := &commandLine{
		conf:   conf,
		logger: logsvc.NewDiscardLogger(),
		out:    out,
	}
	t.Cleanup(cli.close)
	return cli, out, conf
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_errors(t *testing.T) {
	cli, _, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol" for "admin"`},
		{name: "report student: no key", args: []string{"report", "student"}, wantErrStr: "accepts 1 arg(s), received 0"},
		{name: "report student: unknown", args: []string{"report", "student", "S404"}, wantErr: report.ErrStudentNotFound},
		{
			name: "report class: empty class", args: []string{"report", "class", "--grade", "9", "--section", "Z", "--from", "2024-01-01", "--to", "2024-01-31"},
			wantErr: report.ErrNoStudents,
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			}
			if tt.wantErrStr != "" {
				assert.Contains(t, err.Error(), tt.wantErrStr)
			}
		})
	}

	t.Run("report class: invalid range", func(t *testing.T) {
		err := cli.run([]string{"admin", "report", "class", "--grade", "5", "--section", "A", "--from", "2024-02-01", "--to", "2024-01-01"})
		assert.Error(t, err)
	})
}

func Test_commandLine_init(t *testing.T) {
	cli, out, conf := setup(t)

	require.NoError(t, cli.run([]string{"admin", "init"}))
	assert.Equal(t, "database ready at "+conf.Database.Path+"\n", out.String())
}

func Test_commandLine_students(t *testing.T) {
	cli, out, _ := setup(t)

	require.NoError(t, cli.run([]string{"admin", "students", "--grade", "5", "--section", "A"}))
	var students []student.Student
	require.NoError(t, json.Unmarshal(out.Bytes(), &students))
	require.Len(t, students, 2)
	assert.Equal(t, "S001", students[0].StudentID)
	assert.Equal(t, "S002", students[1].StudentID)

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "students", "--search", "ngoy"}))
	students = nil
	require.NoError(t, json.Unmarshal(out.Bytes(), &students))
	require.Len(t, students, 1)
	assert.Equal(t, "Neema", students[0].FirstName)
}

func Test_commandLine_stats(t *testing.T) {
	cli, out, _ := setup(t)

	require.NoError(t, cli.run([]string{"admin", "stats"}))
	var stats report.Stats
	require.NoError(t, json.Unmarshal(out.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalStudents)
	assert.Equal(t, 2, stats.TotalClasses)
	assert.Equal(t, float64(50), stats.AttendanceRate)
}

func Test_commandLine_reports(t *testing.T) {
	cli, out, _ := setup(t)

	require.NoError(t, cli.run([]string{"admin", "report", "student", "S001"}))
	var stuRep report.StudentReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &stuRep))
	assert.True(t, stuRep.Success)
	require.Len(t, stuRep.Attendance, 2)
	assert.Equal(t, "2024-01-16", stuRep.Attendance[0].Date)

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "report", "class", "--grade", "5", "--section", "A", "--from", "2024-01-01", "--to", "2024-01-31"}))
	var classRep report.ClassReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &classRep))
	assert.Len(t, classRep.AttendanceData, 2)
	require.Len(t, classRep.Summary, 2)
	assert.Equal(t, float64(50), classRep.Summary[0].Rate)
}

func Test_commandLine_table(t *testing.T) {
	cli, _, _ := setup(t)
	tty := new(ttyBuffer)
	cli.out = tty

	orig := isTerminalFunc
	isTerminalFunc = func(fd int) bool { return true }
	defer func() { isTerminalFunc = orig }()

	require.NoError(t, cli.run([]string{"admin", "students", "--grade", "6"}))
	assert.Equal(t,
		"STUDENT ID  NAME        GRADE  SECTION  GENDER  BORN\n"+
			"S003        Neema Ngoy  6      B        female  2012-05-04\n",
		tty.String(),
	)

	tty.Reset()
	require.NoError(t, cli.run([]string{"admin", "--json", "students", "--grade", "6"}))
	var students []student.Student
	require.NoError(t, json.Unmarshal(tty.Bytes(), &students))
	assert.Len(t, students, 1)
}
