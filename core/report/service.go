package report

import (
	"context"
	"sort"

	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/grade"
)

type (
	// Filter is the caller-supplied narrowing; it intersects the scope
	// predicate from the authorization verdict, never replaces it.
	Filter struct {
		StudentID  *int `query:"student_id"`
		GroupID    *int `query:"group_id"`
		SemesterID *int `query:"semester_id"`
		TeacherID  *int `query:"teacher_id"`
	}

	// Summary is the per-(student, subject) aggregate. Ordering is studentID
	// then subjectID ascending, so identical queries yield identical output.
	Summary struct {
		StudentID    int     `json:"student_id"`
		SubjectID    int     `json:"subject_id"`
		AverageGrade float64 `json:"average_grade"`
		GradeCount   int     `json:"grade_count"`
	}

	Service interface {
		GenerateGradeSummary(ctx context.Context, filter Filter, scope authz.Scope) ([]Summary, error)
	}

	service struct {
		gradeRepo grade.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(gradeRepo grade.Repository) Service {
	return &service{gradeRepo: gradeRepo}
}

// GenerateGradeSummary computes the arithmetic-mean grade and count per
// (student, subject). A pure read; no invariant enforcement.
func (svc *service) GenerateGradeSummary(ctx context.Context, filter Filter, scope authz.Scope) ([]Summary, error) {
	gf, empty := intersect(filter, scope)
	if empty {
		return []Summary{}, nil
	}

	grades, err := svc.gradeRepo.FilterGrades(ctx, gf)
	if err != nil {
		return nil, err
	}

	type key struct{ studentID, subjectID int }
	type agg struct {
		sum   int
		count int
	}
	aggs := make(map[key]*agg)
	for _, g := range grades {
		k := key{g.StudentID, g.SubjectID}
		a, ok := aggs[k]
		if !ok {
			a = new(agg)
			aggs[k] = a
		}
		a.sum += g.Value
		a.count++
	}

	summaries := make([]Summary, 0, len(aggs))
	for k, a := range aggs {
		summaries = append(summaries, Summary{
			StudentID:    k.studentID,
			SubjectID:    k.subjectID,
			AverageGrade: float64(a.sum) / float64(a.count),
			GradeCount:   a.count,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].StudentID != summaries[j].StudentID {
			return summaries[i].StudentID < summaries[j].StudentID
		}
		return summaries[i].SubjectID < summaries[j].SubjectID
	})
	return summaries, nil
}

// intersect combines the scope predicate with the caller's filter. The
// combination can be provably empty (e.g. a caller narrowing an already
// scoped studentID to a different one), in which case no query is needed.
func intersect(filter Filter, scope authz.Scope) (grade.Filter, bool) {
	var gf grade.Filter

	switch {
	case scope.StudentID != 0:
		if filter.StudentID != nil && *filter.StudentID != scope.StudentID {
			return gf, true
		}
		sid := scope.StudentID
		gf.StudentID = &sid
	case filter.StudentID != nil:
		gf.StudentID = filter.StudentID
	}

	switch {
	case scope.TeacherID != 0:
		// scope wins over any caller-supplied teacher filter
		tid := scope.TeacherID
		gf.TeacherID = &tid
	case filter.TeacherID != nil:
		gf.TeacherID = filter.TeacherID
	}

	gf.GroupID = filter.GroupID
	gf.SemesterID = filter.SemesterID
	return gf, false
}
