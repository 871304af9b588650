package student_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/assignment"
	"github.com/tigranyan252/studentperf/core/grade"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"
	dummydb "github.com/tigranyan252/studentperf/storage/database/dummy"
)

// fakeMailer records sent messages.
type fakeMailer struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

var _ core.EmailService = (*fakeMailer)(nil)

func (m *fakeMailer) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, messages...)
}

func (m *fakeMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type studentFixture struct {
	svc    student.Service
	db     *dummydb.DB
	mailer *fakeMailer
	group  school.Group
}

func setup(t *testing.T) *studentFixture {
	t.Helper()
	ctx := context.Background()

	db, err := dummydb.Open()
	require.NoError(t, err)

	schoolRepo := dummydb.NewSchoolRepository(db)
	g, err := schoolRepo.CreateGroup(ctx, school.Group{Name: "Group 1", Code: "G1"})
	require.NoError(t, err)

	mailer := &fakeMailer{}
	svc := student.NewService(
		dummydb.NewStudentRepository(db),
		schoolRepo,
		user.NewService(dummydb.NewUserRepository(db)),
		mailer,
	)
	return &studentFixture{svc: svc, db: db, mailer: mailer, group: g}
}

func (f *studentFixture) newStudent(uname string) student.NewStudent {
	return student.NewStudent{
		Username:        uname,
		Email:           uname + "@test.test",
		Password:        "V3ry.Secret",
		PasswordConfirm: "V3ry.Secret",
		GroupID:         f.group.ID,
	}
}

func TestService_createSendsWelcomeMail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	std, err := f.svc.Create(ctx, f.newStudent("stud1"))
	require.NoError(t, err)
	assert.Equal(t, f.group.ID, std.GroupID)
	assert.Equal(t, user.RoleStudent, std.User.Role)
	assert.True(t, std.User.IsActive)

	require.Equal(t, 1, f.mailer.sentCount())
	msg := f.mailer.sent[0]
	assert.Equal(t, "stud1@test.test", msg.To[0].Address)
	assert.Equal(t, "welcome", msg.TemplateName)
}

func TestService_createValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ns := f.newStudent("stud1")
	ns.PasswordConfirm = "different"
	_, err := f.svc.Create(ctx, ns)
	var vErrs validator.ValidationErrors
	assert.ErrorAs(t, err, &vErrs)

	ns = f.newStudent("stud1")
	ns.GroupID = 424242
	_, err = f.svc.Create(ctx, ns)
	assert.Equal(t, school.ErrGroupNotFound, err)

	// duplicate username surfaces as a field error
	_, err = f.svc.Create(ctx, f.newStudent("stud1"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.newStudent("stud1"))
	var fieldErr *core.ValidationError
	assert.ErrorAs(t, err, &fieldErr)

	// no mail goes out for refused creations
	assert.Equal(t, 1, f.mailer.sentCount())
}

func TestService_updateGroupMove(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	g2, err := dummydb.NewSchoolRepository(f.db).CreateGroup(ctx, school.Group{Name: "Group 2", Code: "G2"})
	require.NoError(t, err)

	std, err := f.svc.Create(ctx, f.newStudent("stud1"))
	require.NoError(t, err)

	moved, err := f.svc.Update(ctx, std.ID, student.UpdateStudent{GroupID: &g2.ID, Version: std.Version})
	require.NoError(t, err)
	assert.Equal(t, g2.ID, moved.GroupID)
	assert.Equal(t, std.Version+1, moved.Version)

	// a replayed token loses the race, even for an actor-only change
	_, err = f.svc.Update(ctx, std.ID, student.UpdateStudent{Email: "new@test.test", Version: std.Version})
	assert.Equal(t, core.ErrStaleVersion, err)

	updated, err := f.svc.Update(ctx, std.ID, student.UpdateStudent{Email: "new@test.test", Version: moved.Version})
	require.NoError(t, err)
	assert.Equal(t, "new@test.test", updated.User.Email)
}

func TestService_deleteBlockedByGrades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	std, err := f.svc.Create(ctx, f.newStudent("stud1"))
	require.NoError(t, err)

	tch, err := dummydb.NewTeacherRepository(f.db).CreateTeacher(ctx,
		user.User{Username: "teach1", Email: "teach1@test.test", Role: user.RoleTeacher, IsActive: true},
		teacher.Teacher{},
	)
	require.NoError(t, err)
	subj, err := dummydb.NewSchoolRepository(f.db).CreateSubject(ctx, school.Subject{Name: "Algebra", Code: "ALG"})
	require.NoError(t, err)
	grant, err := dummydb.NewAssignmentRepository(f.db).CreateAssignment(ctx, assignment.Assignment{
		TeacherID: tch.ID, SubjectID: subj.ID, GroupID: f.group.ID, SemesterID: 1,
	})
	require.NoError(t, err)

	gradeRepo := dummydb.NewGradeRepository(f.db)
	g, err := gradeRepo.CreateGrade(ctx, grade.Grade{
		StudentID: std.ID, AssignmentID: grant.ID, TeacherID: tch.ID,
		SubjectID: subj.ID, SemesterID: 1, Value: 90,
	})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, std.ID, std.Version)
	assert.Equal(t, student.ErrStudentHasGrades, err)

	require.NoError(t, gradeRepo.DeleteGrade(ctx, g.ID, g.Version))
	require.NoError(t, f.svc.Delete(ctx, std.ID, std.Version))
	_, err = f.svc.GetByID(ctx, std.ID)
	assert.Equal(t, student.ErrNotFound, err)
}
