package assignment

import (
	"context"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/teacher"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("assignment not found")
	ErrDuplicateTuple  = core.NewConflictError("an identical teaching assignment already exists")
	ErrAssignmentInUse = core.NewConflictError("assignment is referenced by grades")
)

type (
	// Repository is the Entity Store contract for Assignments. CreateAssignment
	// and UpdateAssignment re-check tuple uniqueness atomically with the write.
	Repository interface {
		CheckTupleUniqueness(ctx context.Context, a Assignment, excluded ...Assignment) error
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		QueryAllAssignments(ctx context.Context) ([]Assignment, error)
		FilterAssignments(ctx context.Context, filter Filter) ([]Assignment, error)
		GetAssignmentByID(ctx context.Context, id int) (Assignment, error)
		// FindGrant returns the live assignment exactly matching the 4-tuple,
		// or ErrNotFound.
		FindGrant(ctx context.Context, teacherID, subjectID, groupID, semesterID int) (Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// DeleteAssignment returns ErrAssignmentInUse while any Grade
		// references the assignment.
		DeleteAssignment(ctx context.Context, id, version int) error
	}

	Service interface {
		Create(ctx context.Context, na NewAssignment) (Assignment, error)
		QueryAll(ctx context.Context) ([]Assignment, error)
		Filter(ctx context.Context, filter Filter) ([]Assignment, error)
		GetByID(ctx context.Context, id int) (Assignment, error)
		Update(ctx context.Context, id int, ua UpdateAssignment) (Assignment, error)
		Delete(ctx context.Context, id, version int) error
	}

	service struct {
		repo        Repository
		teacherRepo teacher.Repository
		schoolRepo  school.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, teacherRepo teacher.Repository, schoolRepo school.Repository) Service {
	return &service{repo: repo, teacherRepo: teacherRepo, schoolRepo: schoolRepo}
}

// checkReferences resolves every foreign key of the prospective tuple,
// returning the referenced entity's NotFound error for a dead link.
func (svc *service) checkReferences(ctx context.Context, a Assignment) error {
	if _, err := svc.teacherRepo.GetTeacherByID(ctx, a.TeacherID); err != nil {
		return err
	}
	if _, err := svc.schoolRepo.GetSubjectByID(ctx, a.SubjectID); err != nil {
		return err
	}
	if _, err := svc.schoolRepo.GetGroupByID(ctx, a.GroupID); err != nil {
		return err
	}
	if _, err := svc.schoolRepo.GetSemesterByID(ctx, a.SemesterID); err != nil {
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	if err := core.Validate.Struct(na); err != nil {
		return Assignment{}, err
	}
	a := Assignment{
		TeacherID:  na.TeacherID,
		SubjectID:  na.SubjectID,
		GroupID:    na.GroupID,
		SemesterID: na.SemesterID,
	}
	if err := svc.checkReferences(ctx, a); err != nil {
		return Assignment{}, err
	}
	if err := svc.repo.CheckTupleUniqueness(ctx, a); err != nil {
		return Assignment{}, err
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *service) QueryAll(ctx context.Context) ([]Assignment, error) {
	return svc.repo.QueryAllAssignments(ctx)
}

func (svc *service) Filter(ctx context.Context, filter Filter) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, ua UpdateAssignment) (Assignment, error) {
	if err := core.Validate.Struct(ua); err != nil {
		return Assignment{}, err
	}
	orig, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}

	a := orig
	if ua.TeacherID != nil {
		a.TeacherID = *ua.TeacherID
	}
	if ua.SubjectID != nil {
		a.SubjectID = *ua.SubjectID
	}
	if ua.GroupID != nil {
		a.GroupID = *ua.GroupID
	}
	if ua.SemesterID != nil {
		a.SemesterID = *ua.SemesterID
	}
	a.Version = ua.Version

	if err := svc.checkReferences(ctx, a); err != nil {
		return Assignment{}, err
	}
	if !a.sameTuple(orig) {
		if err := svc.repo.CheckTupleUniqueness(ctx, a, orig); err != nil {
			return Assignment{}, err
		}
	}
	return svc.repo.UpdateAssignment(ctx, a)
}

func (svc *service) Delete(ctx context.Context, id, version int) error {
	return svc.repo.DeleteAssignment(ctx, id, version)
}
