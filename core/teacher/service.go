package teacher

import (
	"context"
	"net/mail"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/user"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("teacher not found")
	ErrTeacherInUse = core.NewConflictError("teacher is referenced by teaching assignments")
)

type (
	// Repository is the Entity Store contract for Teacher profiles. Compound
	// operations (create/delete with the paired Actor) are atomic: a failure
	// of either half leaves no orphan row behind.
	Repository interface {
		CreateTeacher(ctx context.Context, usr user.User, t Teacher) (Teacher, error)
		QueryAllTeachers(ctx context.Context) ([]Teacher, error)
		GetTeacherByID(ctx context.Context, id int) (Teacher, error)
		GetTeacherByUserID(ctx context.Context, userID int) (Teacher, error)
		// DeleteTeacher removes the profile and its Actor together. It returns
		// ErrTeacherInUse while any Assignment references the teacher.
		DeleteTeacher(ctx context.Context, id, version int) error
	}

	Service interface {
		Create(ctx context.Context, nt NewTeacher) (Teacher, error)
		QueryAll(ctx context.Context) ([]Teacher, error)
		GetByID(ctx context.Context, id int) (Teacher, error)
		GetByUserID(ctx context.Context, userID int) (Teacher, error)
		Update(ctx context.Context, id int, ut UpdateTeacher) (Teacher, error)
		Delete(ctx context.Context, id, version int) error
	}

	service struct {
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService) Service {
	return &service{repo: repo, usrSvc: usrSvc, mailSvc: mailSvc}
}

func (svc *service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	nu := nt.asNewUser()
	if err := nu.Validate(svc.usrSvc); err != nil {
		return Teacher{}, err
	}

	usr := user.User{Username: nu.Username, Email: nu.Email, Role: user.RoleTeacher, IsActive: true}
	if err := usr.SetPassword(nu.Password); err != nil {
		return Teacher{}, err
	}
	tchr, err := svc.repo.CreateTeacher(ctx, usr, Teacher{})
	if err != nil {
		return Teacher{}, err
	}

	svc.sendWelcomeMail(tchr.User)
	return tchr, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]Teacher, error) {
	return svc.repo.QueryAllTeachers(ctx)
}

func (svc *service) GetByID(ctx context.Context, id int) (Teacher, error) {
	return svc.repo.GetTeacherByID(ctx, id)
}

func (svc *service) GetByUserID(ctx context.Context, userID int) (Teacher, error) {
	return svc.repo.GetTeacherByUserID(ctx, userID)
}

func (svc *service) Update(ctx context.Context, id int, ut UpdateTeacher) (Teacher, error) {
	tchr, err := svc.repo.GetTeacherByID(ctx, id)
	if err != nil {
		return Teacher{}, err
	}
	uu := user.UpdateUser{
		Email:           ut.Email,
		IsActive:        ut.IsActive,
		Password:        ut.Password,
		PasswordConfirm: ut.PasswordConfirm,
		Version:         ut.Version,
	}
	usr, err := svc.usrSvc.Update(ctx, tchr.UserID, uu)
	if err != nil {
		return Teacher{}, err
	}
	tchr.User = usr
	return tchr, nil
}

func (svc *service) Delete(ctx context.Context, id, version int) error {
	return svc.repo.DeleteTeacher(ctx, id, version)
}

func (svc *service) sendWelcomeMail(usr user.User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      "Your account is ready",
		TemplateName: "welcome",
		TemplateData: usr,
	})
}
