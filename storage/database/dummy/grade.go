package dummydb

import (
	"context"
	"sort"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/grade"
	"github.com/tigranyan252/studentperf/core/student"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db}
}

// CreateGrade re-checks the Student and Assignment references under the
// store lock, so a grade can never land after its grant or subject vanished.
func (repo *gradeRepository) CreateGrade(_ context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.students[g.StudentID]; !ok {
		return grade.Grade{}, student.ErrNotFound
	}
	if _, ok := repo.db.assignments[g.AssignmentID]; !ok {
		return grade.Grade{}, grade.ErrGrantNotFound
	}
	g.ID = repo.db.nextPK()
	g.Version = 1
	repo.db.grades[g.ID] = &g
	return g, nil
}

func (repo *gradeRepository) GetGradeByID(_ context.Context, id int) (grade.Grade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if g, ok := repo.db.grades[id]; ok {
		return *g, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) FilterGrades(_ context.Context, filter grade.Filter) ([]grade.Grade, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var grades []grade.Grade
	for _, g := range repo.db.grades {
		if filter.StudentID != nil && g.StudentID != *filter.StudentID {
			continue
		}
		if filter.TeacherID != nil && g.TeacherID != *filter.TeacherID {
			continue
		}
		if filter.SubjectID != nil && g.SubjectID != *filter.SubjectID {
			continue
		}
		if filter.SemesterID != nil && g.SemesterID != *filter.SemesterID {
			continue
		}
		if filter.GroupID != nil {
			std, ok := repo.db.students[g.StudentID]
			if !ok || std.GroupID != *filter.GroupID {
				continue
			}
		}
		grades = append(grades, *g)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].ID < grades[j].ID })
	return grades, nil
}

func (repo *gradeRepository) UpdateGrade(_ context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.grades[g.ID]
	if !ok {
		return grade.Grade{}, grade.ErrNotFound
	}
	if curr.Version != g.Version {
		return grade.Grade{}, core.ErrStaleVersion
	}
	// only the value is mutable
	updated := *curr
	updated.Value = g.Value
	updated.Version = curr.Version + 1
	repo.db.grades[updated.ID] = &updated
	return updated, nil
}

func (repo *gradeRepository) DeleteGrade(_ context.Context, id, version int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.grades[id]
	if !ok {
		return grade.ErrNotFound
	}
	if curr.Version != version {
		return core.ErrStaleVersion
	}
	delete(repo.db.grades, id)
	return nil
}
