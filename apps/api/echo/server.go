// Package echoapi is the HTTP transport. Handlers bind and validate input,
// consult the authorization engine, then delegate to the domain services;
// scope predicates from Allow verdicts are applied to queries here.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/assignment"
	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/grade"
	"github.com/tigranyan252/studentperf/core/report"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger        core.Logger
		Engine        *authz.Engine
		UserSvc       user.Service
		SchoolSvc     school.Service
		TeacherSvc    teacher.Service
		StudentSvc    student.Service
		AssignmentSvc assignment.Service
		GradeSvc      grade.Service
		ReportSvc     report.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)
	s.app.GET("/health", health)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig())

	registerAuthAPI(v1, s.opts.UserSvc)
	registerRoleAPI(v1, jwt)
	registerSchoolAPI(v1, jwt, s.opts.Engine, s.opts.SchoolSvc)
	registerTeacherAPI(v1, jwt, s.opts.Engine, s.opts.TeacherSvc)
	registerStudentAPI(v1, jwt, s.opts.Engine, s.opts.StudentSvc)
	registerAssignmentAPI(v1, jwt, s.opts.Engine, s.opts.AssignmentSvc)
	registerGradeAPI(v1, jwt, s.opts.Engine, s.opts.GradeSvc, s.opts.TeacherSvc)
	registerReportAPI(v1, jwt, s.opts.Engine, s.opts.ReportSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown lets the error handler trigger a graceful shutdown on
// integrity errors.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to StudentPerf API!")
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"build":  core.Conf.Build,
		"env":    core.Conf.Env,
	})
}

// registerAuthAPI registers the un-authed endpoints.
func registerAuthAPI(g *echo.Group, svc user.Service) {
	api := authAPI{svc: svc}
	g.POST("/login", api.login)
}

type authAPI struct {
	svc user.Service
}

func (api *authAPI) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errAuthenticationFailed
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), data.Username, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// registerRoleAPI exposes the closed role catalog to administrators.
func registerRoleAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	g.GET("/roles", queryRoles, jwt, adminMiddleware())
}

func queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.AllRoles)
}
