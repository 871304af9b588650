package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/user"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

// CreateStudent creates the Actor and the Student profile as one atomic
// operation, re-checking the Group reference under the same lock.
func (repo *studentRepository) CreateStudent(_ context.Context, usr user.User, s student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.checkUsernameUniqueness(usr.Username, usr.Email); err != nil {
		return student.Student{}, err
	}
	if _, ok := repo.db.groups[s.GroupID]; !ok {
		return student.Student{}, school.ErrGroupNotFound
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
			return student.Student{}, err
		}
	}

	s.ID = repo.db.nextPK()
	s.UserID = usr.ID
	s.Version = 1
	s.User = usr
	stored := s
	stored.User = user.User{} // the joined Actor is attached on reads
	repo.db.students[s.ID] = &stored
	return s, nil
}

func (repo *studentRepository) withUser(s student.Student) student.Student {
	if usr, ok := repo.db.users[s.UserID]; ok {
		s.User = *usr
	}
	return s
}

func (repo *studentRepository) QueryAllStudents(_ context.Context) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	students := make([]student.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		students = append(students, repo.withUser(*s))
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *studentRepository) FilterStudents(_ context.Context, filter student.Filter) ([]student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wanted := make(map[int]bool, len(filter.GroupIDs))
	for _, id := range filter.GroupIDs {
		wanted[id] = true
	}

	var students []student.Student
	for _, s := range repo.db.students {
		if wanted[s.GroupID] {
			students = append(students, repo.withUser(*s))
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id int) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return repo.withUser(*s), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByUserID(_ context.Context, userID int) (student.Student, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, s := range repo.db.students {
		if s.UserID == userID {
			return repo.withUser(*s), nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.students[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if curr.Version != s.Version {
		return student.Student{}, core.ErrStaleVersion
	}
	if _, ok := repo.db.groups[s.GroupID]; !ok {
		return student.Student{}, school.ErrGroupNotFound
	}
	s.UserID = curr.UserID
	s.Version = curr.Version + 1
	stored := s
	stored.User = user.User{}
	repo.db.students[s.ID] = &stored
	return repo.withUser(stored), nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id, version int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.students[id]
	if !ok {
		return student.ErrNotFound
	}
	if curr.Version != version {
		return core.ErrStaleVersion
	}
	for _, g := range repo.db.grades {
		if g.StudentID == id {
			return student.ErrStudentHasGrades
		}
	}
	delete(repo.db.students, id)
	delete(repo.db.users, curr.UserID)
	return nil
}
