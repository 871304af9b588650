package dummydb

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"
)

func TestCreateTeacher_pairedCreationIsAtomic(t *testing.T) {
	db, err := Open()
	require.NoError(t, err)
	ctx := context.Background()

	teacherRepo := NewTeacherRepository(db)
	usrRepo := NewUserRepository(db)
	usr := user.User{Username: "teach1", Email: "teach1@test.test", Role: user.RoleTeacher, IsActive: true}

	// a failure between the two halves must leave no orphan Actor behind
	boom := errors.New("profile insert failed")
	beforeProfileInsert = func() error { return boom }
	_, err = teacherRepo.CreateTeacher(ctx, usr, teacher.Teacher{})
	beforeProfileInsert = nil
	assert.Equal(t, boom, err)

	_, err = usrRepo.GetUserByUsernameOrEmail(ctx, usr.Username)
	assert.Equal(t, user.ErrNotFound, err)

	// the rolled-back username is reusable
	tch, err := teacherRepo.CreateTeacher(ctx, usr, teacher.Teacher{})
	require.NoError(t, err)
	assert.NotZero(t, tch.UserID)

	created, err := usrRepo.GetUserByUsernameOrEmail(ctx, usr.Username)
	require.NoError(t, err)
	assert.Equal(t, tch.UserID, created.ID)
}

func TestCreateStudent_pairedCreationIsAtomic(t *testing.T) {
	db, err := Open()
	require.NoError(t, err)
	ctx := context.Background()

	g, err := NewSchoolRepository(db).CreateGroup(ctx, school.Group{Name: "Group 1", Code: "G1"})
	require.NoError(t, err)

	studentRepo := NewStudentRepository(db)
	usrRepo := NewUserRepository(db)
	usr := user.User{Username: "stud1", Email: "stud1@test.test", Role: user.RoleStudent, IsActive: true}

	boom := errors.New("profile insert failed")
	beforeProfileInsert = func() error { return boom }
	_, err = studentRepo.CreateStudent(ctx, usr, student.Student{GroupID: g.ID})
	beforeProfileInsert = nil
	assert.Equal(t, boom, err)

	_, err = usrRepo.GetUserByUsernameOrEmail(ctx, usr.Username)
	assert.Equal(t, user.ErrNotFound, err)

	std, err := studentRepo.CreateStudent(ctx, usr, student.Student{GroupID: g.ID})
	require.NoError(t, err)
	assert.Equal(t, g.ID, std.GroupID)
}

func TestDeleteTeacher_removesPairedActor(t *testing.T) {
	db, err := Open()
	require.NoError(t, err)
	ctx := context.Background()

	teacherRepo := NewTeacherRepository(db)
	usrRepo := NewUserRepository(db)

	tch, err := teacherRepo.CreateTeacher(ctx,
		user.User{Username: "teach1", Email: "teach1@test.test", Role: user.RoleTeacher, IsActive: true},
		teacher.Teacher{},
	)
	require.NoError(t, err)

	require.NoError(t, teacherRepo.DeleteTeacher(ctx, tch.ID, tch.Version))

	_, err = teacherRepo.GetTeacherByID(ctx, tch.ID)
	assert.Equal(t, teacher.ErrNotFound, err)
	_, err = usrRepo.GetUserByID(ctx, tch.UserID)
	assert.Equal(t, user.ErrNotFound, err)
}
