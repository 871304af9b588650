package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"
)

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db}
}

// CreateTeacher creates the Actor and the Teacher profile as one atomic
// operation; a failure of the second half compensates by removing the first.
func (repo *teacherRepository) CreateTeacher(_ context.Context, usr user.User, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.checkUsernameUniqueness(usr.Username, usr.Email); err != nil {
		return teacher.Teacher{}, err
	}

	now := time.Now().UTC()
	usr.ID = repo.db.nextPK()
	usr.Version = 1
	usr.CreatedAt = now
	usr.UpdatedAt = now
	repo.db.users[usr.ID] = &usr

	if beforeProfileInsert != nil {
		if err := beforeProfileInsert(); err != nil {
			delete(repo.db.users, usr.ID) // compensating delete
			return teacher.Teacher{}, err
		}
	}

	t.ID = repo.db.nextPK()
	t.UserID = usr.ID
	t.Version = 1
	t.User = usr
	stored := t
	stored.User = user.User{} // the joined Actor is attached on reads
	repo.db.teachers[t.ID] = &stored
	return t, nil
}

func (repo *teacherRepository) withUser(t teacher.Teacher) teacher.Teacher {
	if usr, ok := repo.db.users[t.UserID]; ok {
		t.User = *usr
	}
	return t
}

func (repo *teacherRepository) QueryAllTeachers(_ context.Context) ([]teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	teachers := make([]teacher.Teacher, 0, len(repo.db.teachers))
	for _, t := range repo.db.teachers {
		teachers = append(teachers, repo.withUser(*t))
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })
	return teachers, nil
}

func (repo *teacherRepository) GetTeacherByID(_ context.Context, id int) (teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if t, ok := repo.db.teachers[id]; ok {
		return repo.withUser(*t), nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) GetTeacherByUserID(_ context.Context, userID int) (teacher.Teacher, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, t := range repo.db.teachers {
		if t.UserID == userID {
			return repo.withUser(*t), nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) DeleteTeacher(_ context.Context, id, version int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.teachers[id]
	if !ok {
		return teacher.ErrNotFound
	}
	if curr.Version != version {
		return core.ErrStaleVersion
	}
	for _, a := range repo.db.assignments {
		if a.TeacherID == id {
			return teacher.ErrTeacherInUse
		}
	}
	delete(repo.db.teachers, id)
	delete(repo.db.users, curr.UserID)
	return nil
}
