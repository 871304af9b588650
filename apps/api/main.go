package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/assignment"
	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/grade"
	"github.com/tigranyan252/studentperf/core/report"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"

	echoapi "github.com/tigranyan252/studentperf/apps/api/echo"
	emailsvc "github.com/tigranyan252/studentperf/services/email"
	logsvc "github.com/tigranyan252/studentperf/services/logger"
	dummydb "github.com/tigranyan252/studentperf/storage/database/dummy"
	pgdb "github.com/tigranyan252/studentperf/storage/database/postgres"
)

type repositories struct {
	user       user.Repository
	school     school.Repository
	teacher    teacher.Repository
	student    student.Repository
	assignment assignment.Repository
	grade      grade.Repository
}

func main() {
	conf := core.LoadConfig()

	// set up logger
	var logger core.Logger
	if conf.RollbarToken != "" {
		rl := logsvc.NewRollbarLogger(
			log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
			conf,
		)
		rl.Enable(!conf.Debug)
		logger = rl
	} else {
		logger = logsvc.NewStdLogger(
			log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		)
	}

	// set up the Entity Store
	repos, cleanup, err := setUpStore(conf)
	if err != nil {
		logger.Error(fmt.Sprintf("setting up store: %v", err), err)
		os.Exit(1)
	}
	defer cleanup()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrSvc := user.NewService(repos.user)
	schoolSvc := school.NewService(repos.school)
	teacherSvc := teacher.NewService(repos.teacher, usrSvc, mailSvc)
	studentSvc := student.NewService(repos.student, repos.school, usrSvc, mailSvc)
	assignmentSvc := assignment.NewService(repos.assignment, repos.teacher, repos.school)
	gradeSvc := grade.NewService(repos.grade, repos.student, repos.assignment, repos.school)
	reportSvc := report.NewService(repos.grade)

	resolver := authz.NewResolver(repos.teacher, repos.student, repos.assignment)
	engine := authz.NewEngine(resolver, repos.student, repos.grade)

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	server := echoapi.NewServer(&echoapi.Options{
		Address:       conf.Server.Address(),
		Logger:        logger,
		Engine:        engine,
		UserSvc:       usrSvc,
		SchoolSvc:     schoolSvc,
		TeacherSvc:    teacherSvc,
		StudentSvc:    studentSvc,
		AssignmentSvc: assignmentSvc,
		GradeSvc:      gradeSvc,
		ReportSvc:     reportSvc,
	})

	go server.Start()

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)
		os.Exit(1)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
				os.Exit(1)
			}
		}
	}
}

// setUpStore opens the configured Entity Store. The in-memory store serves
// development and tests; anything else goes through postgres.
func setUpStore(conf *core.Config) (repositories, func(), error) {
	if conf.Database.Engine == "dummy" || conf.TestMode {
		db, err := dummydb.Open()
		if err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			user:       dummydb.NewUserRepository(db),
			school:     dummydb.NewSchoolRepository(db),
			teacher:    dummydb.NewTeacherRepository(db),
			student:    dummydb.NewStudentRepository(db),
			assignment: dummydb.NewAssignmentRepository(db),
			grade:      dummydb.NewGradeRepository(db),
		}, func() {}, nil
	}

	db, err := pgdb.Open(conf)
	if err != nil {
		return repositories{}, nil, err
	}
	cleanup := func() { _ = db.Close() }
	return repositories{
		user:       pgdb.NewUserRepository(db),
		school:     pgdb.NewSchoolRepository(db),
		teacher:    pgdb.NewTeacherRepository(db),
		student:    pgdb.NewStudentRepository(db),
		assignment: pgdb.NewAssignmentRepository(db),
		grade:      pgdb.NewGradeRepository(db),
	}, cleanup, nil
}
