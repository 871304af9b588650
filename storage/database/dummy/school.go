package dummydb

import (
	"context"
	"sort"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

// Groups

func (repo *schoolRepository) CheckGroupUniqueness(_ context.Context, name, code string, excluded ...school.Group) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excl := make(map[int]bool, len(excluded))
	for _, g := range excluded {
		excl[g.ID] = true
	}
	for _, g := range repo.db.groups {
		if excl[g.ID] {
			continue
		}
		if g.Name == name {
			return school.ErrGroupNameExists
		}
		if g.Code == code {
			return school.ErrGroupCodeExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateGroup(_ context.Context, g school.Group) (school.Group, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, curr := range repo.db.groups {
		if curr.Name == g.Name {
			return school.Group{}, school.ErrGroupNameExists
		}
		if curr.Code == g.Code {
			return school.Group{}, school.ErrGroupCodeExists
		}
	}
	g.ID = repo.db.nextPK()
	g.Version = 1
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *schoolRepository) QueryAllGroups(_ context.Context) ([]school.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	groups := make([]school.Group, 0, len(repo.db.groups))
	for _, g := range repo.db.groups {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (repo *schoolRepository) GetGroupByID(_ context.Context, id int) (school.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if g, ok := repo.db.groups[id]; ok {
		return *g, nil
	}
	return school.Group{}, school.ErrGroupNotFound
}

func (repo *schoolRepository) UpdateGroup(_ context.Context, g school.Group) (school.Group, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.groups[g.ID]
	if !ok {
		return school.Group{}, school.ErrGroupNotFound
	}
	if curr.Version != g.Version {
		return school.Group{}, core.ErrStaleVersion
	}
	for _, other := range repo.db.groups {
		if other.ID == g.ID {
			continue
		}
		if other.Name == g.Name {
			return school.Group{}, school.ErrGroupNameExists
		}
		if other.Code == g.Code {
			return school.Group{}, school.ErrGroupCodeExists
		}
	}
	g.Version = curr.Version + 1
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *schoolRepository) DeleteGroup(_ context.Context, id, version int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.groups[id]
	if !ok {
		return school.ErrGroupNotFound
	}
	if curr.Version != version {
		return core.ErrStaleVersion
	}
	for _, std := range repo.db.students {
		if std.GroupID == id {
			return school.ErrGroupInUse
		}
	}
	for _, a := range repo.db.assignments {
		if a.GroupID == id {
			return school.ErrGroupInUse
		}
	}
	delete(repo.db.groups, id)
	return nil
}

// Subjects

func (repo *schoolRepository) CheckSubjectUniqueness(_ context.Context, name, code string, excluded ...school.Subject) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excl := make(map[int]bool, len(excluded))
	for _, s := range excluded {
		excl[s.ID] = true
	}
	for _, s := range repo.db.subjects {
		if excl[s.ID] {
			continue
		}
		if s.Name == name {
			return school.ErrSubjectNameExists
		}
		if s.Code == code {
			return school.ErrSubjectCodeExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateSubject(_ context.Context, s school.Subject) (school.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, curr := range repo.db.subjects {
		if curr.Name == s.Name {
			return school.Subject{}, school.ErrSubjectNameExists
		}
		if curr.Code == s.Code {
			return school.Subject{}, school.ErrSubjectCodeExists
		}
	}
	s.ID = repo.db.nextPK()
	s.Version = 1
	repo.db.subjects[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) QueryAllSubjects(_ context.Context) ([]school.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subjects := make([]school.Subject, 0, len(repo.db.subjects))
	for _, s := range repo.db.subjects {
		subjects = append(subjects, *s)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects, nil
}

func (repo *schoolRepository) GetSubjectByID(_ context.Context, id int) (school.Subject, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.subjects[id]; ok {
		return *s, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo *schoolRepository) UpdateSubject(_ context.Context, s school.Subject) (school.Subject, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.subjects[s.ID]
	if !ok {
		return school.Subject{}, school.ErrSubjectNotFound
	}
	if curr.Version != s.Version {
		return school.Subject{}, core.ErrStaleVersion
	}
	for _, other := range repo.db.subjects {
		if other.ID == s.ID {
			continue
		}
		if other.Name == s.Name {
			return school.Subject{}, school.ErrSubjectNameExists
		}
		if other.Code == s.Code {
			return school.Subject{}, school.ErrSubjectCodeExists
		}
	}
	s.Version = curr.Version + 1
	repo.db.subjects[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) DeleteSubject(_ context.Context, id, version int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.subjects[id]
	if !ok {
		return school.ErrSubjectNotFound
	}
	if curr.Version != version {
		return core.ErrStaleVersion
	}
	for _, a := range repo.db.assignments {
		if a.SubjectID == id {
			return school.ErrSubjectInUse
		}
	}
	delete(repo.db.subjects, id)
	return nil
}

// Semesters

func (repo *schoolRepository) CheckSemesterUniqueness(_ context.Context, name, code string, excluded ...school.Semester) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excl := make(map[int]bool, len(excluded))
	for _, s := range excluded {
		excl[s.ID] = true
	}
	for _, s := range repo.db.semesters {
		if excl[s.ID] {
			continue
		}
		if s.Name == name {
			return school.ErrSemesterNameExists
		}
		if s.Code == code {
			return school.ErrSemesterCodeExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateSemester(_ context.Context, s school.Semester) (school.Semester, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, curr := range repo.db.semesters {
		if curr.Name == s.Name {
			return school.Semester{}, school.ErrSemesterNameExists
		}
		if curr.Code == s.Code {
			return school.Semester{}, school.ErrSemesterCodeExists
		}
	}
	s.ID = repo.db.nextPK()
	s.Version = 1
	repo.db.semesters[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) QueryAllSemesters(_ context.Context) ([]school.Semester, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	semesters := make([]school.Semester, 0, len(repo.db.semesters))
	for _, s := range repo.db.semesters {
		semesters = append(semesters, *s)
	}
	sort.Slice(semesters, func(i, j int) bool { return semesters[i].ID < semesters[j].ID })
	return semesters, nil
}

func (repo *schoolRepository) GetSemesterByID(_ context.Context, id int) (school.Semester, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.semesters[id]; ok {
		return *s, nil
	}
	return school.Semester{}, school.ErrSemesterNotFound
}

func (repo *schoolRepository) UpdateSemester(_ context.Context, s school.Semester) (school.Semester, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.semesters[s.ID]
	if !ok {
		return school.Semester{}, school.ErrSemesterNotFound
	}
	if curr.Version != s.Version {
		return school.Semester{}, core.ErrStaleVersion
	}
	for _, other := range repo.db.semesters {
		if other.ID == s.ID {
			continue
		}
		if other.Name == s.Name {
			return school.Semester{}, school.ErrSemesterNameExists
		}
		if other.Code == s.Code {
			return school.Semester{}, school.ErrSemesterCodeExists
		}
	}
	s.Version = curr.Version + 1
	repo.db.semesters[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) DeleteSemester(_ context.Context, id, version int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.semesters[id]
	if !ok {
		return school.ErrSemesterNotFound
	}
	if curr.Version != version {
		return core.ErrStaleVersion
	}
	for _, a := range repo.db.assignments {
		if a.SemesterID == id {
			return school.ErrSemesterInUse
		}
	}
	delete(repo.db.semesters, id)
	return nil
}
