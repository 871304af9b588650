package report_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigranyan252/studentperf/core/assignment"
	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/grade"
	"github.com/tigranyan252/studentperf/core/report"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"
	dummydb "github.com/tigranyan252/studentperf/storage/database/dummy"
)

type reportFixture struct {
	svc       report.Service
	teacher1  teacher.Teacher
	teacher2  teacher.Teacher
	student1  student.Student
	student2  student.Student
	subject1  school.Subject
	subject2  school.Subject
	semester1 school.Semester
}

// setup seeds two teachers and two students with a spread of grades:
//
//	student1: subject1 80, 90 (teacher1); subject2 70 (teacher2)
//	student2: subject1 60 (teacher1)
func setup(t *testing.T) *reportFixture {
	t.Helper()
	ctx := context.Background()

	db, err := dummydb.Open()
	require.NoError(t, err)

	schoolRepo := dummydb.NewSchoolRepository(db)
	g, err := schoolRepo.CreateGroup(ctx, school.Group{Name: "Group 1", Code: "G1"})
	require.NoError(t, err)
	subj1, err := schoolRepo.CreateSubject(ctx, school.Subject{Name: "Algebra", Code: "ALG"})
	require.NoError(t, err)
	subj2, err := schoolRepo.CreateSubject(ctx, school.Subject{Name: "Biology", Code: "BIO"})
	require.NoError(t, err)
	sem, err := schoolRepo.CreateSemester(ctx, school.Semester{Name: "Fall 2026", Code: "F26"})
	require.NoError(t, err)

	teacherRepo := dummydb.NewTeacherRepository(db)
	tch1, err := teacherRepo.CreateTeacher(ctx,
		user.User{Username: "teach1", Email: "teach1@test.test", Role: user.RoleTeacher, IsActive: true},
		teacher.Teacher{},
	)
	require.NoError(t, err)
	tch2, err := teacherRepo.CreateTeacher(ctx,
		user.User{Username: "teach2", Email: "teach2@test.test", Role: user.RoleTeacher, IsActive: true},
		teacher.Teacher{},
	)
	require.NoError(t, err)

	studentRepo := dummydb.NewStudentRepository(db)
	std1, err := studentRepo.CreateStudent(ctx,
		user.User{Username: "stud1", Email: "stud1@test.test", Role: user.RoleStudent, IsActive: true},
		student.Student{GroupID: g.ID},
	)
	require.NoError(t, err)
	std2, err := studentRepo.CreateStudent(ctx,
		user.User{Username: "stud2", Email: "stud2@test.test", Role: user.RoleStudent, IsActive: true},
		student.Student{GroupID: g.ID},
	)
	require.NoError(t, err)

	assignRepo := dummydb.NewAssignmentRepository(db)
	grant1, err := assignRepo.CreateAssignment(ctx, assignment.Assignment{
		TeacherID: tch1.ID, SubjectID: subj1.ID, GroupID: g.ID, SemesterID: sem.ID,
	})
	require.NoError(t, err)
	grant2, err := assignRepo.CreateAssignment(ctx, assignment.Assignment{
		TeacherID: tch2.ID, SubjectID: subj2.ID, GroupID: g.ID, SemesterID: sem.ID,
	})
	require.NoError(t, err)

	gradeRepo := dummydb.NewGradeRepository(db)
	seed := []grade.Grade{
		{StudentID: std1.ID, AssignmentID: grant1.ID, TeacherID: tch1.ID, SubjectID: subj1.ID, SemesterID: sem.ID, Value: 80},
		{StudentID: std1.ID, AssignmentID: grant1.ID, TeacherID: tch1.ID, SubjectID: subj1.ID, SemesterID: sem.ID, Value: 90},
		{StudentID: std1.ID, AssignmentID: grant2.ID, TeacherID: tch2.ID, SubjectID: subj2.ID, SemesterID: sem.ID, Value: 70},
		{StudentID: std2.ID, AssignmentID: grant1.ID, TeacherID: tch1.ID, SubjectID: subj1.ID, SemesterID: sem.ID, Value: 60},
	}
	for _, g := range seed {
		_, err := gradeRepo.CreateGrade(ctx, g)
		require.NoError(t, err)
	}

	return &reportFixture{
		svc:       report.NewService(gradeRepo),
		teacher1:  tch1,
		teacher2:  tch2,
		student1:  std1,
		student2:  std2,
		subject1:  subj1,
		subject2:  subj2,
		semester1: sem,
	}
}

func TestService_summaryAggregation(t *testing.T) {
	f := setup(t)

	summaries, err := f.svc.GenerateGradeSummary(context.Background(), report.Filter{}, authz.Scope{})
	require.NoError(t, err)

	// ordered by student then subject, means exact
	require.Len(t, summaries, 3)
	assert.Equal(t, report.Summary{StudentID: f.student1.ID, SubjectID: f.subject1.ID, AverageGrade: 85, GradeCount: 2}, summaries[0])
	assert.Equal(t, report.Summary{StudentID: f.student1.ID, SubjectID: f.subject2.ID, AverageGrade: 70, GradeCount: 1}, summaries[1])
	assert.Equal(t, report.Summary{StudentID: f.student2.ID, SubjectID: f.subject1.ID, AverageGrade: 60, GradeCount: 1}, summaries[2])
}

func TestService_studentScopeIntersection(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	scope := authz.Scope{StudentID: f.student1.ID}

	// the scope pins the student without a caller filter
	summaries, err := f.svc.GenerateGradeSummary(ctx, report.Filter{}, scope)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, s := range summaries {
		assert.Equal(t, f.student1.ID, s.StudentID)
	}

	// a matching caller filter is redundant but allowed
	summaries, err = f.svc.GenerateGradeSummary(ctx, report.Filter{StudentID: &f.student1.ID}, scope)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)

	// a conflicting caller filter yields a provably empty result
	summaries, err = f.svc.GenerateGradeSummary(ctx, report.Filter{StudentID: &f.student2.ID}, scope)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestService_teacherScopeOverridesFilter(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	scope := authz.Scope{TeacherID: f.teacher1.ID}

	// the caller's teacher filter never widens the scope
	summaries, err := f.svc.GenerateGradeSummary(ctx, report.Filter{TeacherID: &f.teacher2.ID}, scope)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, f.subject1.ID, summaries[0].SubjectID)
	assert.Equal(t, f.subject1.ID, summaries[1].SubjectID)
}

func TestService_callerNarrowing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	summaries, err := f.svc.GenerateGradeSummary(ctx, report.Filter{SemesterID: &f.semester1.ID}, authz.Scope{})
	require.NoError(t, err)
	assert.Len(t, summaries, 3)

	missing := 424242
	summaries, err = f.svc.GenerateGradeSummary(ctx, report.Filter{SemesterID: &missing}, authz.Scope{})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
