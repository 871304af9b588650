package pgdb

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core/grade"
	"github.com/tigranyan252/studentperf/core/student"
)

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

type gradeRow struct {
	ID           int       `db:"id"`
	Ref          string    `db:"ref"`
	StudentID    int       `db:"student_id"`
	AssignmentID int       `db:"assignment_id"`
	TeacherID    int       `db:"teacher_id"`
	SubjectID    int       `db:"subject_id"`
	SemesterID   int       `db:"semester_id"`
	Value        int       `db:"value"`
	RecordedAt   time.Time `db:"recorded_at"`
	Version      int       `db:"version"`
}

func (r gradeRow) toGrade() grade.Grade {
	return grade.Grade{
		ID:           r.ID,
		Ref:          r.Ref,
		StudentID:    r.StudentID,
		AssignmentID: r.AssignmentID,
		TeacherID:    r.TeacherID,
		SubjectID:    r.SubjectID,
		SemesterID:   r.SemesterID,
		Value:        r.Value,
		RecordedAt:   r.RecordedAt.UTC(),
		Version:      r.Version,
	}
}

const gradeColumns = "id, ref, student_id, assignment_id, teacher_id, subject_id, semester_id, value, recorded_at, version"

// CreateGrade relies on the foreign keys to reject a vanished Student or
// Assignment atomically with the insert.
func (repo *gradeRepository) CreateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	var row gradeRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO grades (ref, student_id, assignment_id, teacher_id, subject_id, semester_id, value, recorded_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		 RETURNING `+gradeColumns,
		g.Ref, g.StudentID, g.AssignmentID, g.TeacherID, g.SubjectID, g.SemesterID, g.Value, g.RecordedAt)
	if err != nil {
		switch {
		case constraintViolated(err, "grades_student_id_fkey"):
			return grade.Grade{}, student.ErrNotFound
		case constraintViolated(err, "grades_assignment_id_fkey"):
			return grade.Grade{}, grade.ErrGrantNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return row.toGrade(), nil
}

func (repo *gradeRepository) GetGradeByID(ctx context.Context, id int) (grade.Grade, error) {
	var row gradeRow
	err := repo.db.GetContext(ctx, &row, "SELECT "+gradeColumns+" FROM grades WHERE id = $1", id)
	if err != nil {
		if isNoRows(err) {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "getting grade")
	}
	return row.toGrade(), nil
}

func (repo *gradeRepository) FilterGrades(ctx context.Context, filter grade.Filter) ([]grade.Grade, error) {
	var conds []string
	var args []interface{}
	addCond := func(column string, v *int) {
		if v != nil {
			args = append(args, *v)
			conds = append(conds, column+" = $"+strconv.Itoa(len(args)))
		}
	}
	addCond("g.student_id", filter.StudentID)
	addCond("g.teacher_id", filter.TeacherID)
	addCond("g.subject_id", filter.SubjectID)
	addCond("g.semester_id", filter.SemesterID)
	// GroupID matches on the student's current group
	addCond("s.group_id", filter.GroupID)

	query := `SELECT g.id, g.ref, g.student_id, g.assignment_id, g.teacher_id, g.subject_id,
	                 g.semester_id, g.value, g.recorded_at, g.version
	          FROM grades g
	          JOIN students s ON s.id = g.student_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY g.id"

	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering grades")
	}
	grades := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.toGrade())
	}
	return grades, nil
}

// UpdateGrade only writes the value; identifying fields are immutable.
func (repo *gradeRepository) UpdateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	var row gradeRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE grades SET value = $1, version = version + 1
		 WHERE id = $2 AND version = $3
		 RETURNING `+gradeColumns,
		g.Value, g.ID, g.Version)
	if err != nil {
		if isNoRows(err) {
			return grade.Grade{}, staleOrMissing(ctx, repo.db, "grades", g.ID, grade.ErrNotFound)
		}
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	return row.toGrade(), nil
}

func (repo *gradeRepository) DeleteGrade(ctx context.Context, id, version int) error {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM grades WHERE id = $1 AND version = $2", id, version)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading rows affected")
	}
	if n == 0 {
		return staleOrMissing(ctx, repo.db, "grades", id, grade.ErrNotFound)
	}
	return nil
}
