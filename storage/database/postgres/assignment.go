package pgdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core/assignment"
)

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

type assignmentRow struct {
	ID         int `db:"id"`
	TeacherID  int `db:"teacher_id"`
	SubjectID  int `db:"subject_id"`
	GroupID    int `db:"group_id"`
	SemesterID int `db:"semester_id"`
	Version    int `db:"version"`
}

func (r assignmentRow) toAssignment() assignment.Assignment {
	return assignment.Assignment{
		ID:         r.ID,
		TeacherID:  r.TeacherID,
		SubjectID:  r.SubjectID,
		GroupID:    r.GroupID,
		SemesterID: r.SemesterID,
		Version:    r.Version,
	}
}

const assignmentColumns = "id, teacher_id, subject_id, group_id, semester_id, version"

func (repo *assignmentRepository) CheckTupleUniqueness(ctx context.Context, a assignment.Assignment, excluded ...assignment.Assignment) error {
	exclIDs := make([]int, 0, len(excluded))
	for _, e := range excluded {
		exclIDs = append(exclIDs, e.ID)
	}
	query, args, err := sqlx.In(
		`SELECT EXISTS (
		   SELECT 1 FROM assignments
		   WHERE teacher_id = ? AND subject_id = ? AND group_id = ? AND semester_id = ? AND id NOT IN (?)
		 )`,
		a.TeacherID, a.SubjectID, a.GroupID, a.SemesterID, append(exclIDs, 0),
	)
	if err != nil {
		return errors.Wrap(err, "building tuple uniqueness query")
	}

	var exists bool
	err = repo.db.GetContext(ctx, &exists, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return errors.Wrap(err, "checking tuple uniqueness")
	}
	if exists {
		return assignment.ErrDuplicateTuple
	}
	return nil
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO assignments (teacher_id, subject_id, group_id, semester_id, version)
		 VALUES ($1, $2, $3, $4, 1)
		 RETURNING `+assignmentColumns,
		a.TeacherID, a.SubjectID, a.GroupID, a.SemesterID)
	if err != nil {
		if constraintViolated(err, "assignments_tuple_key") {
			return assignment.Assignment{}, assignment.ErrDuplicateTuple
		}
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return row.toAssignment(), nil
}

func (repo *assignmentRepository) QueryAllAssignments(ctx context.Context) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	err := repo.db.SelectContext(ctx, &rows, "SELECT "+assignmentColumns+" FROM assignments ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toAssignment())
	}
	return assignments, nil
}

func (repo *assignmentRepository) FilterAssignments(ctx context.Context, filter assignment.Filter) ([]assignment.Assignment, error) {
	var conds []string
	var args []interface{}
	addCond := func(column string, v *int) {
		if v != nil {
			args = append(args, *v)
			conds = append(conds, column+" = $"+strconv.Itoa(len(args)))
		}
	}
	addCond("teacher_id", filter.TeacherID)
	addCond("subject_id", filter.SubjectID)
	addCond("group_id", filter.GroupID)
	addCond("semester_id", filter.SemesterID)

	query := "SELECT " + assignmentColumns + " FROM assignments"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering assignments")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toAssignment())
	}
	return assignments, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id int) (assignment.Assignment, error) {
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row, "SELECT "+assignmentColumns+" FROM assignments WHERE id = $1", id)
	if err != nil {
		if isNoRows(err) {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.toAssignment(), nil
}

func (repo *assignmentRepository) FindGrant(ctx context.Context, teacherID, subjectID, groupID, semesterID int) (assignment.Assignment, error) {
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT `+assignmentColumns+` FROM assignments
		 WHERE teacher_id = $1 AND subject_id = $2 AND group_id = $3 AND semester_id = $4`,
		teacherID, subjectID, groupID, semesterID)
	if err != nil {
		if isNoRows(err) {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding grant")
	}
	return row.toAssignment(), nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE assignments
		 SET teacher_id = $1, subject_id = $2, group_id = $3, semester_id = $4, version = version + 1
		 WHERE id = $5 AND version = $6
		 RETURNING `+assignmentColumns,
		a.TeacherID, a.SubjectID, a.GroupID, a.SemesterID, a.ID, a.Version)
	if err != nil {
		if isNoRows(err) {
			return assignment.Assignment{}, staleOrMissing(ctx, repo.db, "assignments", a.ID, assignment.ErrNotFound)
		}
		if constraintViolated(err, "assignments_tuple_key") {
			return assignment.Assignment{}, assignment.ErrDuplicateTuple
		}
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return row.toAssignment(), nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id, version int) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var dependents int
	err = tx.GetContext(ctx, &dependents, "SELECT COUNT(*) FROM grades WHERE assignment_id = $1", id)
	if err != nil {
		return errors.Wrap(err, "counting grades")
	}
	if dependents > 0 {
		return assignment.ErrAssignmentInUse
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1 AND version = $2", id, version)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading rows affected")
	}
	if n == 0 {
		return staleOrMissing(ctx, tx, "assignments", id, assignment.ErrNotFound)
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
