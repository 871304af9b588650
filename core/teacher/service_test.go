package teacher_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/assignment"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"
	dummydb "github.com/tigranyan252/studentperf/storage/database/dummy"
)

// mailRecorder records sent messages.
type mailRecorder struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

var _ core.EmailService = (*mailRecorder)(nil)

func (m *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, messages...)
}

func setup(t *testing.T) (teacher.Service, *dummydb.DB, *mailRecorder) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	mailer := &mailRecorder{}
	svc := teacher.NewService(
		dummydb.NewTeacherRepository(db),
		user.NewService(dummydb.NewUserRepository(db)),
		mailer,
	)
	return svc, db, mailer
}

func newTeacher(uname string) teacher.NewTeacher {
	return teacher.NewTeacher{
		Username:        uname,
		Email:           uname + "@test.test",
		Password:        "V3ry.Secret",
		PasswordConfirm: "V3ry.Secret",
	}
}

func TestService_createPairsActorAndProfile(t *testing.T) {
	svc, _, mailer := setup(t)
	ctx := context.Background()

	tch, err := svc.Create(ctx, newTeacher("teach1"))
	require.NoError(t, err)
	assert.NotZero(t, tch.UserID)
	assert.Equal(t, user.RoleTeacher, tch.User.Role)
	assert.True(t, tch.User.IsActive)
	require.NoError(t, tch.User.CheckPassword("V3ry.Secret"))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "teach1@test.test", mailer.sent[0].To[0].Address)

	// username and email collisions surface as field errors
	nt := newTeacher("teach1")
	_, err = svc.Create(ctx, nt)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Len(t, mailer.sent, 1)
}

func TestService_updateTouchesPairedActor(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	tch, err := svc.Create(ctx, newTeacher("teach1"))
	require.NoError(t, err)

	deactivate := false
	updated, err := svc.Update(ctx, tch.ID, teacher.UpdateTeacher{
		Email:    "other@test.test",
		IsActive: &deactivate,
		Version:  tch.User.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, "other@test.test", updated.User.Email)
	assert.False(t, updated.User.IsActive)

	// a replayed actor token loses the race
	_, err = svc.Update(ctx, tch.ID, teacher.UpdateTeacher{Email: "x@test.test", Version: tch.User.Version})
	assert.Equal(t, core.ErrStaleVersion, err)
}

func TestService_deleteBlockedByAssignments(t *testing.T) {
	svc, db, _ := setup(t)
	ctx := context.Background()

	tch, err := svc.Create(ctx, newTeacher("teach1"))
	require.NoError(t, err)

	schoolRepo := dummydb.NewSchoolRepository(db)
	g, err := schoolRepo.CreateGroup(ctx, school.Group{Name: "Group 1", Code: "G1"})
	require.NoError(t, err)
	subj, err := schoolRepo.CreateSubject(ctx, school.Subject{Name: "Algebra", Code: "ALG"})
	require.NoError(t, err)

	assignRepo := dummydb.NewAssignmentRepository(db)
	grant, err := assignRepo.CreateAssignment(ctx, assignment.Assignment{
		TeacherID: tch.ID, SubjectID: subj.ID, GroupID: g.ID, SemesterID: 1,
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, tch.ID, tch.Version)
	assert.Equal(t, teacher.ErrTeacherInUse, err)

	require.NoError(t, assignRepo.DeleteAssignment(ctx, grant.ID, grant.Version))
	require.NoError(t, svc.Delete(ctx, tch.ID, tch.Version))
	_, err = svc.GetByID(ctx, tch.ID)
	assert.Equal(t, teacher.ErrNotFound, err)
}
