package student

import (
	"context"
	"net/mail"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("student not found")
	ErrStudentHasGrades = core.NewConflictError("student is referenced by grades")
)

type (
	// Repository is the Entity Store contract for Student profiles. Compound
	// operations (create/delete with the paired Actor) are atomic; CreateStudent
	// re-checks the Group reference within the same atomic unit and returns
	// school.ErrGroupNotFound if it vanished.
	Repository interface {
		CreateStudent(ctx context.Context, usr user.User, s Student) (Student, error)
		QueryAllStudents(ctx context.Context) ([]Student, error)
		FilterStudents(ctx context.Context, filter Filter) ([]Student, error)
		GetStudentByID(ctx context.Context, id int) (Student, error)
		GetStudentByUserID(ctx context.Context, userID int) (Student, error)
		// UpdateStudent matches on ID and Version (profile row).
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		// DeleteStudent removes the profile and its Actor together. It returns
		// ErrStudentHasGrades while any Grade references the student.
		DeleteStudent(ctx context.Context, id, version int) error
	}

	Service interface {
		Create(ctx context.Context, ns NewStudent) (Student, error)
		QueryAll(ctx context.Context) ([]Student, error)
		Filter(ctx context.Context, filter Filter) ([]Student, error)
		GetByID(ctx context.Context, id int) (Student, error)
		GetByUserID(ctx context.Context, userID int) (Student, error)
		Update(ctx context.Context, id int, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, id, version int) error
	}

	service struct {
		repo       Repository
		schoolRepo school.Repository
		usrSvc     user.Service
		mailSvc    core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, schoolRepo school.Repository, usrSvc user.Service, mailSvc core.EmailService) Service {
	return &service{repo: repo, schoolRepo: schoolRepo, usrSvc: usrSvc, mailSvc: mailSvc}
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	nu := ns.asNewUser()
	if err := nu.Validate(svc.usrSvc); err != nil {
		return Student{}, err
	}
	if _, err := svc.schoolRepo.GetGroupByID(ctx, ns.GroupID); err != nil {
		return Student{}, err
	}

	usr := user.User{Username: nu.Username, Email: nu.Email, Role: user.RoleStudent, IsActive: true}
	if err := usr.SetPassword(nu.Password); err != nil {
		return Student{}, err
	}
	std, err := svc.repo.CreateStudent(ctx, usr, Student{GroupID: ns.GroupID})
	if err != nil {
		return Student{}, err
	}

	svc.sendWelcomeMail(std.User)
	return std, nil
}

func (svc *service) QueryAll(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryAllStudents(ctx)
}

func (svc *service) Filter(ctx context.Context, filter Filter) ([]Student, error) {
	if filter.IsEmpty() {
		return svc.repo.QueryAllStudents(ctx)
	}
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) GetByUserID(ctx context.Context, userID int) (Student, error) {
	return svc.repo.GetStudentByUserID(ctx, userID)
}

// Update applies partial changes. The supplied Version is the Student's
// token: it gates the whole operation even when only the paired Actor's
// fields change.
func (svc *service) Update(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	std, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if std.Version != us.Version {
		return Student{}, core.ErrStaleVersion
	}

	if us.GroupID != nil && *us.GroupID != std.GroupID {
		if _, err := svc.schoolRepo.GetGroupByID(ctx, *us.GroupID); err != nil {
			return Student{}, err
		}
		std.GroupID = *us.GroupID
		if std, err = svc.repo.UpdateStudent(ctx, std); err != nil {
			return Student{}, err
		}
	}

	if us.touchesActor() {
		uu := user.UpdateUser{
			Email:           us.Email,
			Password:        us.Password,
			PasswordConfirm: us.PasswordConfirm,
			Version:         std.User.Version,
		}
		usr, err := svc.usrSvc.Update(ctx, std.UserID, uu)
		if err != nil {
			return Student{}, err
		}
		std.User = usr
	}
	return std, nil
}

func (svc *service) Delete(ctx context.Context, id, version int) error {
	return svc.repo.DeleteStudent(ctx, id, version)
}

func (svc *service) sendWelcomeMail(usr user.User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      "Your account is ready",
		TemplateName: "welcome",
		TemplateData: usr,
	})
}
