package authz_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigranyan252/studentperf/core/assignment"
	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/grade"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"
	dummydb "github.com/tigranyan252/studentperf/storage/database/dummy"
)

type fixture struct {
	engine     *authz.Engine
	assignRepo assignment.Repository

	adminActor    authz.Actor
	teacherActor  authz.Actor // holds a grant: subject1 x group1 x semester1
	teacher2Actor authz.Actor // no grants
	studentActor  authz.Actor // in group1
	student2Actor authz.Actor // in group2, not taught by teacher1

	group1, group2     school.Group
	subject1, subject2 school.Subject
	semester1          school.Semester
	teacher1, teacher2 teacher.Teacher
	student1, student2 student.Student
	grant              assignment.Assignment
	grade1             grade.Grade // recorded by teacher1 for student1
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := dummydb.Open()
	require.NoError(t, err)
	usrRepo := dummydb.NewUserRepository(db)
	schoolRepo := dummydb.NewSchoolRepository(db)
	teacherRepo := dummydb.NewTeacherRepository(db)
	studentRepo := dummydb.NewStudentRepository(db)
	assignRepo := dummydb.NewAssignmentRepository(db)
	gradeRepo := dummydb.NewGradeRepository(db)

	f := new(fixture)
	f.assignRepo = assignRepo
	f.engine = authz.NewEngine(authz.NewResolver(teacherRepo, studentRepo, assignRepo), studentRepo, gradeRepo)

	admin, err := usrRepo.CreateUser(ctx, user.User{Username: "root", Email: "root@test.test", Role: user.RoleAdmin, IsActive: true})
	require.NoError(t, err)
	f.adminActor = authz.Actor{ID: admin.ID, Role: admin.Role}

	f.group1, err = schoolRepo.CreateGroup(ctx, school.Group{Name: "Group 1", Code: "G1"})
	require.NoError(t, err)
	f.group2, err = schoolRepo.CreateGroup(ctx, school.Group{Name: "Group 2", Code: "G2"})
	require.NoError(t, err)
	f.subject1, err = schoolRepo.CreateSubject(ctx, school.Subject{Name: "Algebra", Code: "ALG"})
	require.NoError(t, err)
	f.subject2, err = schoolRepo.CreateSubject(ctx, school.Subject{Name: "Biology", Code: "BIO"})
	require.NoError(t, err)
	f.semester1, err = schoolRepo.CreateSemester(ctx, school.Semester{Name: "Fall 2026", Code: "F26"})
	require.NoError(t, err)

	newActor := func(uname string, role user.Role) user.User {
		return user.User{Username: uname, Email: uname + "@test.test", Role: role, IsActive: true}
	}
	f.teacher1, err = teacherRepo.CreateTeacher(ctx, newActor("teach1", user.RoleTeacher), teacher.Teacher{})
	require.NoError(t, err)
	f.teacherActor = authz.Actor{ID: f.teacher1.UserID, Role: user.RoleTeacher}
	f.teacher2, err = teacherRepo.CreateTeacher(ctx, newActor("teach2", user.RoleTeacher), teacher.Teacher{})
	require.NoError(t, err)
	f.teacher2Actor = authz.Actor{ID: f.teacher2.UserID, Role: user.RoleTeacher}

	f.student1, err = studentRepo.CreateStudent(ctx, newActor("stud1", user.RoleStudent), student.Student{GroupID: f.group1.ID})
	require.NoError(t, err)
	f.studentActor = authz.Actor{ID: f.student1.UserID, Role: user.RoleStudent}
	f.student2, err = studentRepo.CreateStudent(ctx, newActor("stud2", user.RoleStudent), student.Student{GroupID: f.group2.ID})
	require.NoError(t, err)
	f.student2Actor = authz.Actor{ID: f.student2.UserID, Role: user.RoleStudent}

	f.grant, err = assignRepo.CreateAssignment(ctx, assignment.Assignment{
		TeacherID:  f.teacher1.ID,
		SubjectID:  f.subject1.ID,
		GroupID:    f.group1.ID,
		SemesterID: f.semester1.ID,
	})
	require.NoError(t, err)

	f.grade1, err = gradeRepo.CreateGrade(ctx, grade.Grade{
		Ref:          "ref-1",
		StudentID:    f.student1.ID,
		AssignmentID: f.grant.ID,
		TeacherID:    f.teacher1.ID,
		SubjectID:    f.subject1.ID,
		SemesterID:   f.semester1.ID,
		Value:        80,
	})
	require.NoError(t, err)
	return f
}

func TestEngine_catalogAndRolePolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	catalogs := []authz.Resource{authz.ResGroup, authz.ResSubject, authz.ResSemester, authz.ResTeacher, authz.ResAssignment}
	writes := []authz.Operation{authz.OpCreate, authz.OpUpdate, authz.OpDelete}
	reads := []authz.Operation{authz.OpViewAll, authz.OpViewOne}

	for _, res := range catalogs {
		for _, op := range reads {
			for _, actor := range []authz.Actor{f.adminActor, f.teacherActor, f.studentActor} {
				v, err := f.engine.Authorize(ctx, actor, authz.Request{Operation: op, Resource: res, ResourceID: 1})
				require.NoError(t, err)
				assert.Equal(t, authz.Allow, v.Decision, "%s %s should be readable by %s", op, res, actor.Role)
			}
		}
		for _, op := range writes {
			v, err := f.engine.Authorize(ctx, f.adminActor, authz.Request{Operation: op, Resource: res, ResourceID: 1})
			require.NoError(t, err)
			assert.Equal(t, authz.Allow, v.Decision)

			for _, actor := range []authz.Actor{f.teacherActor, f.studentActor} {
				v, err := f.engine.Authorize(ctx, actor, authz.Request{Operation: op, Resource: res, ResourceID: 1})
				require.NoError(t, err)
				assert.Equal(t, authz.Deny, v.Decision, "%s %s should be denied to %s", op, res, actor.Role)
			}
		}
	}

	// the role catalog is admin-only, reads included
	for _, actor := range []authz.Actor{f.teacherActor, f.studentActor} {
		v, err := f.engine.Authorize(ctx, actor, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResRole})
		require.NoError(t, err)
		assert.Equal(t, authz.Deny, v.Decision)
	}

	// unknown roles never pass
	v, err := f.engine.Authorize(ctx, authz.Actor{ID: 1, Role: "superuser"}, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResGroup})
	require.NoError(t, err)
	assert.Equal(t, authz.Deny, v.Decision)
}

func TestEngine_studentResource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor authz.Actor
		req   authz.Request
		want  authz.Decision
		scope *authz.Scope
	}{
		{
			name:  "teacher lists students scoped to taught groups",
			actor: f.teacherActor,
			req:   authz.Request{Operation: authz.OpViewAll, Resource: authz.ResStudent},
			want:  authz.Allow,
			scope: &authz.Scope{GroupIDs: []int{f.group1.ID}},
		},
		{
			name:  "teacher views student in taught group",
			actor: f.teacherActor,
			req:   authz.Request{Operation: authz.OpViewOne, Resource: authz.ResStudent, ResourceID: f.student1.ID},
			want:  authz.Allow,
		},
		{
			name:  "teacher denied student outside taught groups",
			actor: f.teacherActor,
			req:   authz.Request{Operation: authz.OpViewOne, Resource: authz.ResStudent, ResourceID: f.student2.ID},
			want:  authz.Deny,
		},
		{
			// an unauthorized lookup of a missing row is indistinguishable
			// from a forbidden one
			name:  "teacher denied missing student, not told it is missing",
			actor: f.teacherActor,
			req:   authz.Request{Operation: authz.OpViewOne, Resource: authz.ResStudent, ResourceID: 424242},
			want:  authz.Deny,
		},
		{
			name:  "grantless teacher lists with empty scope",
			actor: f.teacher2Actor,
			req:   authz.Request{Operation: authz.OpViewAll, Resource: authz.ResStudent},
			want:  authz.Allow,
			scope: &authz.Scope{GroupIDs: []int{}},
		},
		{
			name:  "student views own record",
			actor: f.studentActor,
			req:   authz.Request{Operation: authz.OpViewOne, Resource: authz.ResStudent, ResourceID: f.student1.ID},
			want:  authz.Allow,
		},
		{
			name:  "student updates own record",
			actor: f.studentActor,
			req:   authz.Request{Operation: authz.OpUpdate, Resource: authz.ResStudent, ResourceID: f.student1.ID},
			want:  authz.Allow,
		},
		{
			name:  "student denied another student's record",
			actor: f.studentActor,
			req:   authz.Request{Operation: authz.OpViewOne, Resource: authz.ResStudent, ResourceID: f.student2.ID},
			want:  authz.Deny,
		},
		{
			name:  "student denied listing",
			actor: f.studentActor,
			req:   authz.Request{Operation: authz.OpViewAll, Resource: authz.ResStudent},
			want:  authz.Deny,
		},
		{
			name:  "teacher denied student mutation",
			actor: f.teacherActor,
			req:   authz.Request{Operation: authz.OpUpdate, Resource: authz.ResStudent, ResourceID: f.student1.ID},
			want:  authz.Deny,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := f.engine.Authorize(ctx, tt.actor, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Decision)
			if tt.scope != nil {
				require.NotNil(t, v.Scope)
				assert.ElementsMatch(t, tt.scope.GroupIDs, v.Scope.GroupIDs)
			}
		})
	}
}

func TestEngine_gradeResource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	newGradeCtx := &authz.GradeContext{StudentID: f.student1.ID, SubjectID: f.subject1.ID, SemesterID: f.semester1.ID}

	tests := []struct {
		name  string
		actor authz.Actor
		req   authz.Request
		want  authz.Decision
	}{
		{
			name:  "granted teacher creates grade",
			actor: f.teacherActor,
			req:   authz.Request{Operation: authz.OpCreate, Resource: authz.ResGrade, NewGrade: newGradeCtx},
			want:  authz.Allow,
		},
		{
			name:  "grantless teacher denied grade creation",
			actor: f.teacher2Actor,
			req:   authz.Request{Operation: authz.OpCreate, Resource: authz.ResGrade, NewGrade: newGradeCtx},
			want:  authz.Deny,
		},
		{
			name:  "wrong subject denied grade creation",
			actor: f.teacherActor,
			req: authz.Request{Operation: authz.OpCreate, Resource: authz.ResGrade, NewGrade: &authz.GradeContext{
				StudentID: f.student1.ID, SubjectID: f.subject2.ID, SemesterID: f.semester1.ID,
			}},
			want: authz.Deny,
		},
		{
			name:  "student of another group denied grade creation",
			actor: f.teacherActor,
			req: authz.Request{Operation: authz.OpCreate, Resource: authz.ResGrade, NewGrade: &authz.GradeContext{
				StudentID: f.student2.ID, SubjectID: f.subject1.ID, SemesterID: f.semester1.ID,
			}},
			want: authz.Deny,
		},
		{
			name:  "recording teacher views grade",
			actor: f.teacherActor,
			req:   authz.Request{Operation: authz.OpViewOne, Resource: authz.ResGrade, ResourceID: f.grade1.ID},
			want:  authz.Allow,
		},
		{
			name:  "recording teacher updates grade",
			actor: f.teacherActor,
			req:   authz.Request{Operation: authz.OpUpdate, Resource: authz.ResGrade, ResourceID: f.grade1.ID},
			want:  authz.Allow,
		},
		{
			name:  "recording teacher deletes grade",
			actor: f.teacherActor,
			req:   authz.Request{Operation: authz.OpDelete, Resource: authz.ResGrade, ResourceID: f.grade1.ID},
			want:  authz.Allow,
		},
		{
			name:  "non-recording teacher denied grade mutation",
			actor: f.teacher2Actor,
			req:   authz.Request{Operation: authz.OpUpdate, Resource: authz.ResGrade, ResourceID: f.grade1.ID},
			want:  authz.Deny,
		},
		{
			name:  "non-recording teacher denied grade view outside taught groups",
			actor: f.teacher2Actor,
			req:   authz.Request{Operation: authz.OpViewOne, Resource: authz.ResGrade, ResourceID: f.grade1.ID},
			want:  authz.Deny,
		},
		{
			name:  "owning student views grade",
			actor: f.studentActor,
			req:   authz.Request{Operation: authz.OpViewOne, Resource: authz.ResGrade, ResourceID: f.grade1.ID},
			want:  authz.Allow,
		},
		{
			// absence within the student's own scope is not sensitive
			name:  "student gets NotFound for a missing grade",
			actor: f.studentActor,
			req:   authz.Request{Operation: authz.OpViewOne, Resource: authz.ResGrade, ResourceID: 424242},
			want:  authz.NotFound,
		},
		{
			name:  "other student denied existing grade",
			actor: f.student2Actor,
			req:   authz.Request{Operation: authz.OpViewOne, Resource: authz.ResGrade, ResourceID: f.grade1.ID},
			want:  authz.Deny,
		},
		{
			name:  "student denied grade creation",
			actor: f.studentActor,
			req:   authz.Request{Operation: authz.OpCreate, Resource: authz.ResGrade, NewGrade: newGradeCtx},
			want:  authz.Deny,
		},
		{
			name:  "student denied grade mutation",
			actor: f.studentActor,
			req:   authz.Request{Operation: authz.OpUpdate, Resource: authz.ResGrade, ResourceID: f.grade1.ID},
			want:  authz.Deny,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := f.engine.Authorize(ctx, tt.actor, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Decision)
		})
	}
}

// Decisions follow the grant graph live: adding or removing an Assignment
// flips the verdict with no other state change.
func TestEngine_gradeCreationFollowsGrantLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := authz.Request{Operation: authz.OpCreate, Resource: authz.ResGrade, NewGrade: &authz.GradeContext{
		StudentID: f.student2.ID, SubjectID: f.subject1.ID, SemesterID: f.semester1.ID,
	}}

	// no grant covers student2's group yet
	v, err := f.engine.Authorize(ctx, f.teacherActor, req)
	require.NoError(t, err)
	assert.Equal(t, authz.Deny, v.Decision)

	grant, err := f.assignRepo.CreateAssignment(ctx, assignment.Assignment{
		TeacherID:  f.teacher1.ID,
		SubjectID:  f.subject1.ID,
		GroupID:    f.group2.ID,
		SemesterID: f.semester1.ID,
	})
	require.NoError(t, err)

	v, err = f.engine.Authorize(ctx, f.teacherActor, req)
	require.NoError(t, err)
	assert.Equal(t, authz.Allow, v.Decision)

	require.NoError(t, f.assignRepo.DeleteAssignment(ctx, grant.ID, grant.Version))

	v, err = f.engine.Authorize(ctx, f.teacherActor, req)
	require.NoError(t, err)
	assert.Equal(t, authz.Deny, v.Decision)
}

func TestEngine_gradeListScopes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.engine.Authorize(ctx, f.teacherActor, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResGrade})
	require.NoError(t, err)
	require.Equal(t, authz.Allow, v.Decision)
	require.NotNil(t, v.Scope)
	assert.Equal(t, f.teacher1.ID, v.Scope.TeacherID)
	assert.ElementsMatch(t, []int{f.group1.ID}, v.Scope.GroupIDs)

	v, err = f.engine.Authorize(ctx, f.studentActor, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResGrade})
	require.NoError(t, err)
	require.Equal(t, authz.Allow, v.Decision)
	require.NotNil(t, v.Scope)
	assert.Equal(t, f.student1.ID, v.Scope.StudentID)

	// admin listings carry no scope
	v, err = f.engine.Authorize(ctx, f.adminActor, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResGrade})
	require.NoError(t, err)
	assert.Equal(t, authz.Allow, v.Decision)
	assert.Nil(t, v.Scope)
}

func TestEngine_reportAsymmetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	otherTeacher := f.teacher2.ID
	otherStudent := f.student2.ID
	ownStudent := f.student1.ID

	// a teacher's conflicting teacherId filter is overridden, not rejected
	v, err := f.engine.Authorize(ctx, f.teacherActor, authz.Request{
		Operation: authz.OpViewAll, Resource: authz.ResReport,
		Report: &authz.ReportFilter{TeacherID: &otherTeacher},
	})
	require.NoError(t, err)
	require.Equal(t, authz.Allow, v.Decision)
	require.NotNil(t, v.Scope)
	assert.Equal(t, f.teacher1.ID, v.Scope.TeacherID)

	// a student's conflicting studentId filter is rejected outright
	v, err = f.engine.Authorize(ctx, f.studentActor, authz.Request{
		Operation: authz.OpViewAll, Resource: authz.ResReport,
		Report: &authz.ReportFilter{StudentID: &otherStudent},
	})
	require.NoError(t, err)
	assert.Equal(t, authz.Deny, v.Decision)

	// the student's own id is redundant but fine
	v, err = f.engine.Authorize(ctx, f.studentActor, authz.Request{
		Operation: authz.OpViewAll, Resource: authz.ResReport,
		Report: &authz.ReportFilter{StudentID: &ownStudent},
	})
	require.NoError(t, err)
	require.Equal(t, authz.Allow, v.Decision)
	require.NotNil(t, v.Scope)
	assert.Equal(t, f.student1.ID, v.Scope.StudentID)
}

func TestEngine_roleProfileMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// a teacher-role actor without a teacher profile gets nothing
	impostor := authz.Actor{ID: f.adminActor.ID, Role: user.RoleTeacher}
	for _, res := range []authz.Resource{authz.ResStudent, authz.ResGrade, authz.ResReport} {
		v, err := f.engine.Authorize(ctx, impostor, authz.Request{Operation: authz.OpViewAll, Resource: res})
		require.NoError(t, err)
		assert.Equal(t, authz.Deny, v.Decision, fmt.Sprintf("resource %s", res))
	}
}
