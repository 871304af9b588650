package school

import (
	"context"
	"errors"

	"github.com/tigranyan252/studentperf/core"
)

var (
	// errors
	ErrGroupNotFound    = core.NewNotFoundError("group not found")
	ErrSubjectNotFound  = core.NewNotFoundError("subject not found")
	ErrSemesterNotFound = core.NewNotFoundError("semester not found")

	ErrGroupNameExists    = core.NewConflictError("a group with this name already exists")
	ErrGroupCodeExists    = core.NewConflictError("a group with this code already exists")
	ErrSubjectNameExists  = core.NewConflictError("a subject with this name already exists")
	ErrSubjectCodeExists  = core.NewConflictError("a subject with this code already exists")
	ErrSemesterNameExists = core.NewConflictError("a semester with this name already exists")
	ErrSemesterCodeExists = core.NewConflictError("a semester with this code already exists")

	ErrGroupInUse    = core.NewConflictError("group is referenced by students or teaching assignments")
	ErrSubjectInUse  = core.NewConflictError("subject is referenced by teaching assignments")
	ErrSemesterInUse = core.NewConflictError("semester is referenced by teaching assignments")

	ErrInvalidSemesterDates = errors.New("start date must be before end date")
)

type (
	// Repository is the Entity Store contract for Group, Subject and Semester.
	// Uniqueness and dependency checks run atomically with the write; writes
	// matching on ID+Version return ErrXNotFound for a vanished row and
	// core.ErrStaleVersion for a lost race.
	Repository interface {
		CheckGroupUniqueness(ctx context.Context, name, code string, excluded ...Group) error
		CreateGroup(ctx context.Context, g Group) (Group, error)
		QueryAllGroups(ctx context.Context) ([]Group, error)
		GetGroupByID(ctx context.Context, id int) (Group, error)
		UpdateGroup(ctx context.Context, g Group) (Group, error)
		// DeleteGroup returns ErrGroupInUse while any Student or Assignment
		// references the group.
		DeleteGroup(ctx context.Context, id, version int) error

		CheckSubjectUniqueness(ctx context.Context, name, code string, excluded ...Subject) error
		CreateSubject(ctx context.Context, s Subject) (Subject, error)
		QueryAllSubjects(ctx context.Context) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id int) (Subject, error)
		UpdateSubject(ctx context.Context, s Subject) (Subject, error)
		DeleteSubject(ctx context.Context, id, version int) error

		CheckSemesterUniqueness(ctx context.Context, name, code string, excluded ...Semester) error
		CreateSemester(ctx context.Context, s Semester) (Semester, error)
		QueryAllSemesters(ctx context.Context) ([]Semester, error)
		GetSemesterByID(ctx context.Context, id int) (Semester, error)
		UpdateSemester(ctx context.Context, s Semester) (Semester, error)
		DeleteSemester(ctx context.Context, id, version int) error
	}

	Service interface {
		CreateGroup(ctx context.Context, ng NewGroup) (Group, error)
		QueryAllGroups(ctx context.Context) ([]Group, error)
		GetGroupByID(ctx context.Context, id int) (Group, error)
		UpdateGroup(ctx context.Context, id int, ug UpdateGroup) (Group, error)
		DeleteGroup(ctx context.Context, id, version int) error

		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		QueryAllSubjects(ctx context.Context) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id int) (Subject, error)
		UpdateSubject(ctx context.Context, id int, us UpdateSubject) (Subject, error)
		DeleteSubject(ctx context.Context, id, version int) error

		CreateSemester(ctx context.Context, ns NewSemester) (Semester, error)
		QueryAllSemesters(ctx context.Context) ([]Semester, error)
		GetSemesterByID(ctx context.Context, id int) (Semester, error)
		UpdateSemester(ctx context.Context, id int, us UpdateSemester) (Semester, error)
		DeleteSemester(ctx context.Context, id, version int) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Groups

func (svc *service) CreateGroup(ctx context.Context, ng NewGroup) (Group, error) {
	if err := ng.Validate(); err != nil {
		return Group{}, err
	}
	if err := svc.repo.CheckGroupUniqueness(ctx, ng.Name, ng.Code); err != nil {
		return Group{}, err
	}
	return svc.repo.CreateGroup(ctx, Group{Name: ng.Name, Code: ng.Code})
}

func (svc *service) QueryAllGroups(ctx context.Context) ([]Group, error) {
	return svc.repo.QueryAllGroups(ctx)
}

func (svc *service) GetGroupByID(ctx context.Context, id int) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *service) UpdateGroup(ctx context.Context, id int, ug UpdateGroup) (Group, error) {
	orig, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	if err := ug.Validate(orig); err != nil {
		return Group{}, err
	}
	if err := svc.repo.CheckGroupUniqueness(ctx, ug.Name, ug.Code, orig); err != nil {
		return Group{}, err
	}
	return svc.repo.UpdateGroup(ctx, Group{ID: id, Name: ug.Name, Code: ug.Code, Version: ug.Version})
}

func (svc *service) DeleteGroup(ctx context.Context, id, version int) error {
	return svc.repo.DeleteGroup(ctx, id, version)
}

// Subjects

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	if err := ns.Validate(); err != nil {
		return Subject{}, err
	}
	if err := svc.repo.CheckSubjectUniqueness(ctx, ns.Name, ns.Code); err != nil {
		return Subject{}, err
	}
	return svc.repo.CreateSubject(ctx, Subject{Name: ns.Name, Code: ns.Code})
}

func (svc *service) QueryAllSubjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QueryAllSubjects(ctx)
}

func (svc *service) GetSubjectByID(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *service) UpdateSubject(ctx context.Context, id int, us UpdateSubject) (Subject, error) {
	orig, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	if err := us.Validate(orig); err != nil {
		return Subject{}, err
	}
	if err := svc.repo.CheckSubjectUniqueness(ctx, us.Name, us.Code, orig); err != nil {
		return Subject{}, err
	}
	return svc.repo.UpdateSubject(ctx, Subject{ID: id, Name: us.Name, Code: us.Code, Version: us.Version})
}

func (svc *service) DeleteSubject(ctx context.Context, id, version int) error {
	return svc.repo.DeleteSubject(ctx, id, version)
}

// Semesters

func (svc *service) CreateSemester(ctx context.Context, ns NewSemester) (Semester, error) {
	if err := ns.Validate(); err != nil {
		return Semester{}, err
	}
	if err := svc.repo.CheckSemesterUniqueness(ctx, ns.Name, ns.Code); err != nil {
		return Semester{}, err
	}
	sem := Semester{
		Name:      ns.Name,
		Code:      ns.Code,
		StartDate: ns.StartDate.UTC(),
		EndDate:   ns.EndDate.UTC(),
	}
	return svc.repo.CreateSemester(ctx, sem)
}

func (svc *service) QueryAllSemesters(ctx context.Context) ([]Semester, error) {
	return svc.repo.QueryAllSemesters(ctx)
}

func (svc *service) GetSemesterByID(ctx context.Context, id int) (Semester, error) {
	return svc.repo.GetSemesterByID(ctx, id)
}

func (svc *service) UpdateSemester(ctx context.Context, id int, us UpdateSemester) (Semester, error) {
	orig, err := svc.repo.GetSemesterByID(ctx, id)
	if err != nil {
		return Semester{}, err
	}
	if err := us.Validate(orig); err != nil {
		return Semester{}, err
	}
	if err := svc.repo.CheckSemesterUniqueness(ctx, us.Name, us.Code, orig); err != nil {
		return Semester{}, err
	}
	sem := Semester{
		ID:        id,
		Name:      us.Name,
		Code:      us.Code,
		StartDate: us.StartDate.UTC(),
		EndDate:   us.EndDate.UTC(),
		Version:   us.Version,
	}
	return svc.repo.UpdateSemester(ctx, sem)
}

func (svc *service) DeleteSemester(ctx context.Context, id, version int) error {
	return svc.repo.DeleteSemester(ctx, id, version)
}
