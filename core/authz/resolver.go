package authz

import (
	"context"

	"github.com/tigranyan252/studentperf/core/assignment"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/teacher"
)

type ProfileKind int

const (
	ProfileNone ProfileKind = iota // administrators own no domain profile
	ProfileTeacher
	ProfileStudent
)

// Profile resolves which domain profile, if any, an Actor owns.
type Profile struct {
	Kind      ProfileKind
	TeacherID int
	StudentID int
}

type (
	// Resolver answers read-only questions about the assignment graph. It
	// never mutates; its reads go to the same Entity Store the mutation path
	// uses, so authorize-then-mutate sequences observe one consistent state
	// (the store's compound writes re-check the decisive rows atomically).
	Resolver interface {
		// TeacherTeachesGroup reports whether any Assignment links the teacher
		// to the group, for any subject and semester.
		TeacherTeachesGroup(ctx context.Context, teacherID, groupID int) (bool, error)
		// TeacherGrantedFor is the exact 4-way grant predicate for grade creation.
		TeacherGrantedFor(ctx context.Context, teacherID, subjectID, groupID, semesterID int) (bool, error)
		// GroupsTaught lists the distinct groups the teacher holds any grant for.
		GroupsTaught(ctx context.Context, teacherID int) ([]int, error)
		// StudentGroup returns the student's group, or student.ErrNotFound.
		StudentGroup(ctx context.Context, studentID int) (int, error)
		ActorProfile(ctx context.Context, actorID int) (Profile, error)
	}

	resolver struct {
		teacherRepo teacher.Repository
		studentRepo student.Repository
		assignRepo  assignment.Repository
	}
)

var _ Resolver = (*resolver)(nil)

func NewResolver(teacherRepo teacher.Repository, studentRepo student.Repository, assignRepo assignment.Repository) Resolver {
	return &resolver{teacherRepo: teacherRepo, studentRepo: studentRepo, assignRepo: assignRepo}
}

func (r *resolver) TeacherTeachesGroup(ctx context.Context, teacherID, groupID int) (bool, error) {
	matches, err := r.assignRepo.FilterAssignments(ctx, assignment.Filter{TeacherID: &teacherID, GroupID: &groupID})
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

func (r *resolver) TeacherGrantedFor(ctx context.Context, teacherID, subjectID, groupID, semesterID int) (bool, error) {
	if _, err := r.assignRepo.FindGrant(ctx, teacherID, subjectID, groupID, semesterID); err != nil {
		if err == assignment.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *resolver) GroupsTaught(ctx context.Context, teacherID int) ([]int, error) {
	matches, err := r.assignRepo.FilterAssignments(ctx, assignment.Filter{TeacherID: &teacherID})
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(matches))
	groups := make([]int, 0, len(matches))
	for _, a := range matches {
		if !seen[a.GroupID] {
			seen[a.GroupID] = true
			groups = append(groups, a.GroupID)
		}
	}
	return groups, nil
}

func (r *resolver) StudentGroup(ctx context.Context, studentID int) (int, error) {
	std, err := r.studentRepo.GetStudentByID(ctx, studentID)
	if err != nil {
		return 0, err
	}
	return std.GroupID, nil
}

func (r *resolver) ActorProfile(ctx context.Context, actorID int) (Profile, error) {
	if tchr, err := r.teacherRepo.GetTeacherByUserID(ctx, actorID); err == nil {
		return Profile{Kind: ProfileTeacher, TeacherID: tchr.ID}, nil
	} else if err != teacher.ErrNotFound {
		return Profile{}, err
	}
	if std, err := r.studentRepo.GetStudentByUserID(ctx, actorID); err == nil {
		return Profile{Kind: ProfileStudent, StudentID: std.ID}, nil
	} else if err != student.ErrNotFound {
		return Profile{}, err
	}
	return Profile{Kind: ProfileNone}, nil
}
