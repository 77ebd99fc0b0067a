package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/activity"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/student"
)

// Deps are the domain services served by the API.
type Deps struct {
	StudentSvc    student.Service
	AttendanceSvc attendance.Service
	ReportSvc     report.Service
	ActivitySvc   activity.Service
}

type Server struct {
	conf       *core.Config
	app        *echo.Echo
	deps       *Deps
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
	errors     chan error
	shutdown   chan os.Signal
}

func NewServer(
	conf *core.Config,
	deps *Deps,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *Server {
	s := &Server{
		conf:       conf,
		app:        echo.New(),
		deps:       deps,
		logger:     logger,
		validate:   validate,
		translator: translator,
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())

	s.app.GET("/", s.home)

	api := s.app.Group("/api")
	registerDashboardAPI(api, s.deps.ReportSvc, s.deps.ActivitySvc)
	registerStudentAPI(api, s.deps.StudentSvc, s.validate)
	registerAttendanceAPI(api, s.deps.AttendanceSvc, s.validate)
	registerReportAPI(api, s.deps.ReportSvc, s.validate)
}

// Start blocks until the server stops; startup errors are sent to Errors.
func (s *Server) Start() {
	s.logger.Info("API listening on " + s.conf.Server.Address)
	if err := s.app.Start(s.conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown asks the main goroutine to shut the Server down.
func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // shutdown already requested
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
