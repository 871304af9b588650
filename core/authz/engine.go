// Package authz centralizes every authorization decision of the service in
// one table-driven engine, so the whole policy is auditable and testable in
// isolation from persistence and transport.
package authz

import (
	"context"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/grade"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/user"
)

type Operation string

const (
	OpViewAll Operation = "view_all"
	OpViewOne Operation = "view_one"
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
)

type Resource string

const (
	ResGroup      Resource = "group"
	ResSubject    Resource = "subject"
	ResSemester   Resource = "semester"
	ResTeacher    Resource = "teacher"
	ResStudent    Resource = "student"
	ResAssignment Resource = "assignment"
	ResGrade      Resource = "grade"
	ResRole       Resource = "role"
	ResReport     Resource = "report"
)

type Decision int

const (
	// Deny is a first-class result, not an error. It deliberately covers the
	// "exists but forbidden" and "does not exist" cases alike for Student and
	// Grade lookups, so callers cannot probe for existence.
	Deny Decision = iota
	Allow
	// NotFound is only produced where the actor's own scope makes absence
	// non-sensitive (e.g. a student fetching one of their own grades).
	NotFound
)

type (
	// Actor is the authenticated principal, as extracted from the verified
	// identity context. The engine trusts the (ID, Role) pair but re-derives
	// every profile fact from the store.
	Actor struct {
		ID   int
		Role user.Role
	}

	// GradeContext identifies a prospective grade for Create decisions.
	GradeContext struct {
		StudentID  int
		SubjectID  int
		SemesterID int
	}

	// ReportFilter mirrors the caller-supplied report filters the engine may
	// override or reject, depending on role.
	ReportFilter struct {
		StudentID *int
		TeacherID *int
	}

	Request struct {
		Operation  Operation
		Resource   Resource
		ResourceID int           // for ViewOne/Update/Delete
		NewGrade   *GradeContext // for Create on ResGrade
		Report     *ReportFilter // for ResReport
	}

	// Scope is the row-level predicate attached to Allow verdicts on bulk
	// reads; the caller must apply it to the underlying query before
	// pagination. Zero fields do not constrain. For grade listings, TeacherID
	// and GroupIDs combine as a union: rows recorded by the teacher OR rows of
	// students in the listed groups.
	Scope struct {
		StudentID int
		TeacherID int
		GroupIDs  []int
	}

	Verdict struct {
		Decision Decision
		Scope    *Scope
	}
)

func (v Verdict) Allowed() bool { return v.Decision == Allow }

func allow() Verdict                { return Verdict{Decision: Allow} }
func allowScoped(s Scope) Verdict   { return Verdict{Decision: Allow, Scope: &s} }
func deny() Verdict                 { return Verdict{Decision: Deny} }
func notFound() Verdict             { return Verdict{Decision: NotFound} }

// catalogPolicy is the static policy for the resources whose rules need no
// relationship queries: everyone may read, only administrators may write.
// (Administrators short-circuit before the table is consulted.)
var catalogPolicy = map[Operation]bool{
	OpViewAll: true,
	OpViewOne: true,
	OpCreate:  false,
	OpUpdate:  false,
	OpDelete:  false,
}

type Engine struct {
	resolver    Resolver
	studentRepo student.Repository
	gradeRepo   grade.Repository
}

func NewEngine(resolver Resolver, studentRepo student.Repository, gradeRepo grade.Repository) *Engine {
	return &Engine{resolver: resolver, studentRepo: studentRepo, gradeRepo: gradeRepo}
}

// Authorize returns the policy verdict for (actor, operation, resource).
// A Deny verdict is not an error; errors are reserved for store failures.
func (e *Engine) Authorize(ctx context.Context, actor Actor, req Request) (Verdict, error) {
	switch actor.Role {
	case user.RoleAdmin:
		return allow(), nil
	case user.RoleTeacher, user.RoleStudent:
		// fall through to the per-resource rules
	default:
		return deny(), nil
	}

	switch req.Resource {
	case ResGroup, ResSubject, ResSemester, ResTeacher, ResAssignment:
		if catalogPolicy[req.Operation] {
			return allow(), nil
		}
		return deny(), nil
	case ResRole:
		return deny(), nil
	case ResStudent:
		return e.authorizeStudent(ctx, actor, req)
	case ResGrade:
		return e.authorizeGrade(ctx, actor, req)
	case ResReport:
		return e.authorizeReport(ctx, actor, req)
	}
	return deny(), nil
}

func (e *Engine) authorizeStudent(ctx context.Context, actor Actor, req Request) (Verdict, error) {
	prof, err := e.resolver.ActorProfile(ctx, actor.ID)
	if err != nil {
		return deny(), err
	}

	switch actor.Role {
	case user.RoleTeacher:
		if prof.Kind != ProfileTeacher {
			return deny(), nil
		}
		switch req.Operation {
		case OpViewAll:
			groups, err := e.resolver.GroupsTaught(ctx, prof.TeacherID)
			if err != nil {
				return deny(), err
			}
			return allowScoped(Scope{GroupIDs: groups}), nil
		case OpViewOne:
			groupID, err := e.resolver.StudentGroup(ctx, req.ResourceID)
			if err != nil {
				if core.IsNotFound(err) {
					return deny(), nil
				}
				return deny(), err
			}
			teaches, err := e.resolver.TeacherTeachesGroup(ctx, prof.TeacherID, groupID)
			if err != nil {
				return deny(), err
			}
			if teaches {
				return allow(), nil
			}
			return deny(), nil
		}
		return deny(), nil

	case user.RoleStudent:
		if prof.Kind != ProfileStudent {
			return deny(), nil
		}
		switch req.Operation {
		case OpViewOne, OpUpdate:
			if req.ResourceID == prof.StudentID {
				return allow(), nil
			}
			return deny(), nil
		}
		return deny(), nil
	}
	return deny(), nil
}

func (e *Engine) authorizeGrade(ctx context.Context, actor Actor, req Request) (Verdict, error) {
	prof, err := e.resolver.ActorProfile(ctx, actor.ID)
	if err != nil {
		return deny(), err
	}

	switch actor.Role {
	case user.RoleTeacher:
		if prof.Kind != ProfileTeacher {
			return deny(), nil
		}
		switch req.Operation {
		case OpCreate:
			if req.NewGrade == nil {
				return deny(), nil
			}
			groupID, err := e.resolver.StudentGroup(ctx, req.NewGrade.StudentID)
			if err != nil {
				if core.IsNotFound(err) {
					return deny(), nil
				}
				return deny(), err
			}
			granted, err := e.resolver.TeacherGrantedFor(ctx, prof.TeacherID, req.NewGrade.SubjectID, groupID, req.NewGrade.SemesterID)
			if err != nil {
				return deny(), err
			}
			if granted {
				return allow(), nil
			}
			return deny(), nil
		case OpViewAll:
			groups, err := e.resolver.GroupsTaught(ctx, prof.TeacherID)
			if err != nil {
				return deny(), err
			}
			return allowScoped(Scope{TeacherID: prof.TeacherID, GroupIDs: groups}), nil
		case OpViewOne:
			// broader view rule: the recording teacher, or any teacher of the
			// student's group
			g, err := e.gradeRepo.GetGradeByID(ctx, req.ResourceID)
			if err != nil {
				if core.IsNotFound(err) {
					return deny(), nil
				}
				return deny(), err
			}
			if g.TeacherID == prof.TeacherID {
				return allow(), nil
			}
			groupID, err := e.resolver.StudentGroup(ctx, g.StudentID)
			if err != nil {
				if core.IsNotFound(err) {
					return deny(), nil
				}
				return deny(), err
			}
			teaches, err := e.resolver.TeacherTeachesGroup(ctx, prof.TeacherID, groupID)
			if err != nil {
				return deny(), err
			}
			if teaches {
				return allow(), nil
			}
			return deny(), nil
		case OpUpdate, OpDelete:
			// narrower mutate rule: the recording teacher only
			g, err := e.gradeRepo.GetGradeByID(ctx, req.ResourceID)
			if err != nil {
				if core.IsNotFound(err) {
					return deny(), nil
				}
				return deny(), err
			}
			if g.TeacherID == prof.TeacherID {
				return allow(), nil
			}
			return deny(), nil
		}
		return deny(), nil

	case user.RoleStudent:
		if prof.Kind != ProfileStudent {
			return deny(), nil
		}
		switch req.Operation {
		case OpViewAll:
			return allowScoped(Scope{StudentID: prof.StudentID}), nil
		case OpViewOne:
			g, err := e.gradeRepo.GetGradeByID(ctx, req.ResourceID)
			if err != nil {
				if core.IsNotFound(err) {
					// absence within the student's own scope is not sensitive
					return notFound(), nil
				}
				return deny(), err
			}
			if g.StudentID == prof.StudentID {
				return allow(), nil
			}
			return deny(), nil
		}
		return deny(), nil
	}
	return deny(), nil
}

func (e *Engine) authorizeReport(ctx context.Context, actor Actor, req Request) (Verdict, error) {
	prof, err := e.resolver.ActorProfile(ctx, actor.ID)
	if err != nil {
		return deny(), err
	}

	switch actor.Role {
	case user.RoleTeacher:
		if prof.Kind != ProfileTeacher {
			return deny(), nil
		}
		// A caller-supplied teacherId filter is overridden, not rejected.
		return allowScoped(Scope{TeacherID: prof.TeacherID}), nil

	case user.RoleStudent:
		if prof.Kind != ProfileStudent {
			return deny(), nil
		}
		// Unlike the teacher case, an explicit conflicting studentId filter is
		// rejected rather than silently ignored.
		if req.Report != nil && req.Report.StudentID != nil && *req.Report.StudentID != prof.StudentID {
			return deny(), nil
		}
		return allowScoped(Scope{StudentID: prof.StudentID}), nil
	}
	return deny(), nil
}
