package grade

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/assignment"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("grade not found")
	ErrGrantNotFound = core.NewNotFoundError("no teaching assignment covers this student, subject and semester")
)

// nowFunc is mockable for tests.
var nowFunc = time.Now

type (
	// Repository is the Entity Store contract for Grades. CreateGrade re-checks
	// the Student and Assignment references within the same atomic unit,
	// returning student.ErrNotFound or ErrGrantNotFound if either vanished
	// since the caller's checks.
	Repository interface {
		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		GetGradeByID(ctx context.Context, id int) (Grade, error)
		FilterGrades(ctx context.Context, filter Filter) ([]Grade, error)
		// UpdateGrade matches on ID and Version and only writes Value.
		UpdateGrade(ctx context.Context, g Grade) (Grade, error)
		DeleteGrade(ctx context.Context, id, version int) error
	}

	Service interface {
		// Create records a grade on behalf of teacherID. The stored teacher
		// attribution comes from the matching grant, never from the caller.
		Create(ctx context.Context, teacherID int, ng NewGrade) (Grade, error)
		GetByID(ctx context.Context, id int) (Grade, error)
		Filter(ctx context.Context, filter Filter) ([]Grade, error)
		Update(ctx context.Context, id int, ug UpdateGrade) (Grade, error)
		Delete(ctx context.Context, id, version int) error
	}

	service struct {
		repo        Repository
		studentRepo student.Repository
		assignRepo  assignment.Repository
		schoolRepo  school.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, studentRepo student.Repository, assignRepo assignment.Repository, schoolRepo school.Repository) Service {
	return &service{repo: repo, studentRepo: studentRepo, assignRepo: assignRepo, schoolRepo: schoolRepo}
}

func (svc *service) Create(ctx context.Context, teacherID int, ng NewGrade) (Grade, error) {
	if err := core.Validate.Struct(ng); err != nil {
		return Grade{}, err
	}

	std, err := svc.studentRepo.GetStudentByID(ctx, ng.StudentID)
	if err != nil {
		return Grade{}, err
	}
	if _, err := svc.schoolRepo.GetSubjectByID(ctx, ng.SubjectID); err != nil {
		return Grade{}, err
	}
	if _, err := svc.schoolRepo.GetSemesterByID(ctx, ng.SemesterID); err != nil {
		return Grade{}, err
	}

	// The grant is the authorization fact: the stored teacher attribution is
	// the grant's, so a teacher cannot forge another teacher's.
	grant, err := svc.assignRepo.FindGrant(ctx, teacherID, ng.SubjectID, std.GroupID, ng.SemesterID)
	if err != nil {
		if err == assignment.ErrNotFound {
			return Grade{}, ErrGrantNotFound
		}
		return Grade{}, err
	}

	g := Grade{
		Ref:          uuid.New().String(),
		StudentID:    std.ID,
		AssignmentID: grant.ID,
		TeacherID:    grant.TeacherID,
		SubjectID:    grant.SubjectID,
		SemesterID:   grant.SemesterID,
		Value:        ng.Value,
		RecordedAt:   nowFunc().UTC(),
	}
	return svc.repo.CreateGrade(ctx, g)
}

func (svc *service) GetByID(ctx context.Context, id int) (Grade, error) {
	return svc.repo.GetGradeByID(ctx, id)
}

func (svc *service) Filter(ctx context.Context, filter Filter) ([]Grade, error) {
	return svc.repo.FilterGrades(ctx, filter)
}

func (svc *service) Update(ctx context.Context, id int, ug UpdateGrade) (Grade, error) {
	if err := core.Validate.Struct(ug); err != nil {
		return Grade{}, err
	}
	g, err := svc.repo.GetGradeByID(ctx, id)
	if err != nil {
		return Grade{}, err
	}
	g.Value = ug.Value
	g.Version = ug.Version
	return svc.repo.UpdateGrade(ctx, g)
}

func (svc *service) Delete(ctx context.Context, id, version int) error {
	return svc.repo.DeleteGrade(ctx, id, version)
}
