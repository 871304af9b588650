package dummydb

import (
	"context"
	"sort"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (db *DB) findTuple(a assignment.Assignment, excludedIDs map[int]bool) *assignment.Assignment {
	for _, curr := range db.assignments {
		if excludedIDs[curr.ID] {
			continue
		}
		if curr.TeacherID == a.TeacherID &&
			curr.SubjectID == a.SubjectID &&
			curr.GroupID == a.GroupID &&
			curr.SemesterID == a.SemesterID {
			return curr
		}
	}
	return nil
}

func (repo *assignmentRepository) CheckTupleUniqueness(_ context.Context, a assignment.Assignment, excluded ...assignment.Assignment) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excl := make(map[int]bool, len(excluded))
	for _, e := range excluded {
		excl[e.ID] = true
	}
	if repo.db.findTuple(a, excl) != nil {
		return assignment.ErrDuplicateTuple
	}
	return nil
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.db.findTuple(a, nil) != nil {
		return assignment.Assignment{}, assignment.ErrDuplicateTuple
	}
	a.ID = repo.db.nextPK()
	a.Version = 1
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) QueryAllAssignments(_ context.Context) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	assignments := make([]assignment.Assignment, 0, len(repo.db.assignments))
	for _, a := range repo.db.assignments {
		assignments = append(assignments, *a)
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ID < assignments[j].ID })
	return assignments, nil
}

func (repo *assignmentRepository) FilterAssignments(_ context.Context, filter assignment.Filter) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var assignments []assignment.Assignment
	for _, a := range repo.db.assignments {
		if filter.Matches(*a) {
			assignments = append(assignments, *a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ID < assignments[j].ID })
	return assignments, nil
}

func (repo *assignmentRepository) GetAssignmentByID(_ context.Context, id int) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) FindGrant(_ context.Context, teacherID, subjectID, groupID, semesterID int) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	a := repo.db.findTuple(assignment.Assignment{
		TeacherID:  teacherID,
		SubjectID:  subjectID,
		GroupID:    groupID,
		SemesterID: semesterID,
	}, nil)
	if a == nil {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return *a, nil
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.assignments[a.ID]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	if curr.Version != a.Version {
		return assignment.Assignment{}, core.ErrStaleVersion
	}
	if repo.db.findTuple(a, map[int]bool{a.ID: true}) != nil {
		return assignment.Assignment{}, assignment.ErrDuplicateTuple
	}
	a.Version = curr.Version + 1
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignment(_ context.Context, id, version int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.assignments[id]
	if !ok {
		return assignment.ErrNotFound
	}
	if curr.Version != version {
		return core.ErrStaleVersion
	}
	for _, g := range repo.db.grades {
		if g.AssignmentID == id {
			return assignment.ErrAssignmentInUse
		}
	}
	delete(repo.db.assignments, id)
	return nil
}
