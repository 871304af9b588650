package school_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/user"
	dummydb "github.com/tigranyan252/studentperf/storage/database/dummy"
)

func setup(t *testing.T) (school.Service, *dummydb.DB) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return school.NewService(dummydb.NewSchoolRepository(db)), db
}

func TestService_groupUniqueness(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	g, err := svc.CreateGroup(ctx, school.NewGroup{Name: "Group 1", Code: "G1"})
	require.NoError(t, err)
	assert.Equal(t, 1, g.Version)

	_, err = svc.CreateGroup(ctx, school.NewGroup{Name: "Group 1", Code: "G1B"})
	assert.Equal(t, school.ErrGroupNameExists, err)
	_, err = svc.CreateGroup(ctx, school.NewGroup{Name: "Group 1B", Code: "G1"})
	assert.Equal(t, school.ErrGroupCodeExists, err)

	// an update keeping its own name does not collide with itself
	updated, err := svc.UpdateGroup(ctx, g.ID, school.UpdateGroup{Name: "Group 1", Code: "G1X", Version: g.Version})
	require.NoError(t, err)
	assert.Equal(t, "G1X", updated.Code)
	assert.Equal(t, g.Version+1, updated.Version)

	// but colliding with another group is refused
	other, err := svc.CreateGroup(ctx, school.NewGroup{Name: "Group 2", Code: "G2"})
	require.NoError(t, err)
	_, err = svc.UpdateGroup(ctx, other.ID, school.UpdateGroup{Name: "Group 1", Version: other.Version})
	assert.Equal(t, school.ErrGroupNameExists, err)
}

func TestService_updateGroupStaleVersion(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	g, err := svc.CreateGroup(ctx, school.NewGroup{Name: "Group 1", Code: "G1"})
	require.NoError(t, err)

	_, err = svc.UpdateGroup(ctx, g.ID, school.UpdateGroup{Name: "Renamed", Version: g.Version})
	require.NoError(t, err)

	// replaying the first token loses the race
	_, err = svc.UpdateGroup(ctx, g.ID, school.UpdateGroup{Name: "Replayed", Version: g.Version})
	assert.Equal(t, core.ErrStaleVersion, err)
}

func TestService_semesterDates(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)

	_, err := svc.CreateSemester(ctx, school.NewSemester{Name: "Backwards", Code: "BW", StartDate: end, EndDate: start})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = svc.CreateSemester(ctx, school.NewSemester{Name: "Degenerate", Code: "DG", StartDate: start, EndDate: start})
	require.ErrorAs(t, err, &vErr)

	sem, err := svc.CreateSemester(ctx, school.NewSemester{Name: "Fall 2026", Code: "F26", StartDate: start, EndDate: end})
	require.NoError(t, err)

	// a partial update may not break the ordering either
	badEnd := start.Add(-time.Hour)
	_, err = svc.UpdateSemester(ctx, sem.ID, school.UpdateSemester{EndDate: &badEnd, Version: sem.Version})
	require.ErrorAs(t, err, &vErr)
}

func TestService_deleteGroupBlockedByStudents(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	studentRepo := dummydb.NewStudentRepository(db)

	g, err := svc.CreateGroup(ctx, school.NewGroup{Name: "Group 1", Code: "G1"})
	require.NoError(t, err)

	std, err := studentRepo.CreateStudent(ctx,
		user.User{Username: "stud1", Email: "stud1@test.test", Role: user.RoleStudent, IsActive: true},
		student.Student{GroupID: g.ID},
	)
	require.NoError(t, err)

	err = svc.DeleteGroup(ctx, g.ID, g.Version)
	assert.Equal(t, school.ErrGroupInUse, err)

	// removing the dependent unblocks the delete
	require.NoError(t, studentRepo.DeleteStudent(ctx, std.ID, std.Version))
	require.NoError(t, svc.DeleteGroup(ctx, g.ID, g.Version))

	_, err = svc.GetGroupByID(ctx, g.ID)
	assert.Equal(t, school.ErrGroupNotFound, err)
}

func TestService_deleteMissingAndStale(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	assert.Equal(t, school.ErrSubjectNotFound, svc.DeleteSubject(ctx, 424242, 1))

	s, err := svc.CreateSubject(ctx, school.NewSubject{Name: "Algebra", Code: "ALG"})
	require.NoError(t, err)
	assert.Equal(t, core.ErrStaleVersion, svc.DeleteSubject(ctx, s.ID, s.Version+1))
	require.NoError(t, svc.DeleteSubject(ctx, s.ID, s.Version))
}
