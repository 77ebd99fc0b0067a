package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/activity"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/student"
	metricsvc "github.com/trezcool/shule/services/metrics"
	"github.com/trezcool/shule/storage/database"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	out    io.Writer

	// set up on first use
	db         *sqlx.DB
	validate   *validator.Validate
	studentSvc student.Service
	reportSvc  report.Service

	asJSON bool
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  init                                                  - create the database")
	fmt.Fprintln(cli.out, "  stats                                                 - dashboard figures")
	fmt.Fprintln(cli.out, "  students [--grade G --section S --search Q]           - list students")
	fmt.Fprintln(cli.out, "  report student STUDENT_ID                             - attendance history of a student")
	fmt.Fprintln(cli.out, "  report class --grade G --section S --from D --to D    - attendance of a class")
	fmt.Fprintln(cli.out, "Flags:")
	fmt.Fprintln(cli.out, "  --json    print JSON even on a terminal")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	root := &cobra.Command{
		Use:           "admin",
		Short:         "School administration tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.SetArgs(args[1:])
	root.PersistentFlags().BoolVar(&cli.asJSON, "json", false, "print JSON even on a terminal")

	root.AddCommand(
		cli.initCommand(),
		cli.statsCommand(),
		cli.studentsCommand(),
		cli.reportCommand(),
	)
	return root.Execute()
}

// setup opens the database and builds the services, once.
func (cli *commandLine) setup() error {
	if cli.studentSvc != nil {
		return nil
	}
	db, err := database.Setup(cli.conf)
	if err != nil {
		return err
	}
	cli.db = db

	translator := core.NewTranslator()
	cli.validate = validator.New()
	core.InitValidators(cli.validate, translator)
	report.InitValidators(cli.validate, translator)

	metrics := metricsvc.Nop{}
	stuRepo := sqlxrepos.NewStudentRepository(db)
	attRepo := sqlxrepos.NewAttendanceRepository(db)
	actSvc := activity.NewService(sqlxrepos.NewActivityRepository(db))
	cli.studentSvc = student.NewService(db, stuRepo, actSvc, metrics, cli.logger)
	cli.reportSvc = report.NewService(db, stuRepo, attRepo, actSvc, metrics, cli.logger)
	return nil
}

func (cli *commandLine) close() {
	if cli.db == nil {
		return
	}
	if err := cli.db.Close(); err != nil {
		cli.logger.Error("closing database", err)
	}
	cli.db = nil
}

func (cli *commandLine) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and its schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.setup(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cli.out, "database ready at %s\n", cli.conf.Database.Path)
			return err
		},
	}
}

func (cli *commandLine) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print dashboard figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.setup(); err != nil {
				return err
			}
			stats, err := cli.reportSvc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return cli.print(stats, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "Students\t%d\n", stats.TotalStudents)
				fmt.Fprintf(w, "Classes\t%d\n", stats.TotalClasses)
				fmt.Fprintf(w, "Attendance rate\t%.1f%%\n", stats.AttendanceRate)
				fmt.Fprintln(w, "\nRecent activity\t")
				for _, act := range stats.RecentActivities {
					fmt.Fprintf(w, "%s\t%s\n", act.Timestamp, act.Description)
				}
			})
		},
	}
}

func (cli *commandLine) studentsCommand() *cobra.Command {
	var filter student.QueryFilter

	cmd := &cobra.Command{
		Use:   "students",
		Short: "List students, ordered by first name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.setup(); err != nil {
				return err
			}
			filter.Clean()
			students, err := cli.studentSvc.Query(cmd.Context(), &filter, nil)
			if err != nil {
				return err
			}
			return cli.print(students, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "STUDENT ID\tNAME\tGRADE\tSECTION\tGENDER\tBORN")
				for _, stu := range students {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
						stu.StudentID, stu.FullName(), stu.Grade, stu.Section, stu.Gender, stu.DateOfBirth)
				}
			})
		},
	}
	cmd.Flags().StringVar(&filter.Grade, "grade", "", "only students of this grade")
	cmd.Flags().StringVar(&filter.Section, "section", "", "only students of this section")
	cmd.Flags().StringVar(&filter.Search, "search", "", "match first name, last name or student ID")
	return cmd
}

func (cli *commandLine) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate attendance reports",
	}
	cmd.AddCommand(cli.studentReportCommand(), cli.classReportCommand())
	return cmd
}

func (cli *commandLine) studentReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "student STUDENT_ID",
		Short: "Attendance history of a student, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.setup(); err != nil {
				return err
			}
			rep, err := cli.reportSvc.StudentReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.print(rep, func(w *tabwriter.Writer) {
				fmt.Fprintf(w, "%s (%s), grade %s section %s\n\n",
					rep.Student.FullName(), rep.Student.StudentID, rep.Student.Grade, rep.Student.Section)
				fmt.Fprintln(w, "DATE\tSTATUS")
				for _, rec := range rep.Attendance {
					fmt.Fprintf(w, "%s\t%s\n", rec.Date, status(rec))
				}
			})
		},
	}
}

func (cli *commandLine) classReportCommand() *cobra.Command {
	var req report.ClassReportRequest

	cmd := &cobra.Command{
		Use:   "class",
		Short: "Attendance of a class within a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cli.setup(); err != nil {
				return err
			}
			if err := req.Validate(cli.validate); err != nil {
				return err
			}
			rep, err := cli.reportSvc.AttendanceReport(cmd.Context(), req)
			if err != nil {
				return err
			}
			return cli.print(rep, func(w *tabwriter.Writer) {
				fmt.Fprintln(w, "DATE\tSTUDENT ID\tNAME\tSTATUS")
				for _, row := range rep.AttendanceData {
					fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\n", row.Date, row.StudentIDNumber, row.FirstName, row.LastName, status(row.Record))
				}
				fmt.Fprintln(w, "\nSTUDENT ID\tNAME\tPRESENT\tABSENT\tRATE")
				for _, sum := range rep.Summary {
					fmt.Fprintf(w, "%s\t%s %s\t%d\t%d\t%.1f%%\n",
						sum.StudentIDNumber, sum.FirstName, sum.LastName, sum.Present, sum.Absent, sum.Rate)
				}
			})
		},
	}
	cmd.Flags().StringVar(&req.Grade, "grade", "", "class grade (required)")
	cmd.Flags().StringVar(&req.Section, "section", "", "class section (required)")
	cmd.Flags().StringVar(&req.StartDate, "from", "", "first day, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&req.EndDate, "to", "", "last day, YYYY-MM-DD (required)")
	return cmd
}

// print writes v as a table on a terminal, as JSON otherwise (or when --json is set).
func (cli *commandLine) print(v interface{}, table func(w *tabwriter.Writer)) error {
	if cli.asJSON || !cli.isTerminal() {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	table(w)
	return w.Flush()
}

func (cli *commandLine) isTerminal() bool {
	f, ok := cli.out.(interface{ Fd() uintptr })
	return ok && isTerminalFunc(int(f.Fd()))
}

func status(rec attendance.Record) string {
	if rec.IsPresent {
		return "present"
	}
	return "absent"
}
