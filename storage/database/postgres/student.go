package pgdb

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core/school"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/user"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

type studentRow struct {
	ID      int `db:"id"`
	UserID  int `db:"user_id"`
	GroupID int `db:"group_id"`
	Version int `db:"version"`
	userRow `db:"usr"`
}

func (r studentRow) toStudent() student.Student {
	return student.Student{
		ID:      r.ID,
		UserID:  r.UserID,
		GroupID: r.GroupID,
		Version: r.Version,
		User:    r.userRow.toUser(),
	}
}

const studentQuery = `
SELECT s.id, s.user_id, s.group_id, s.version,
       u.id AS "usr.id", u.username AS "usr.username", u.email AS "usr.email",
       u.role AS "usr.role", u.is_active AS "usr.is_active", u.password_hash AS "usr.password_hash",
       u.created_at AS "usr.created_at", u.updated_at AS "usr.updated_at", u.version AS "usr.version"
FROM students s
JOIN users u ON u.id = s.user_id`

// CreateStudent creates the Actor and the Student profile in one transaction.
// The Group reference is enforced by the foreign key at insert time.
func (repo *studentRepository) CreateStudent(ctx context.Context, usr user.User, s student.Student) (student.Student, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = checkUsernameUniqueness(ctx, tx, usr.Username, usr.Email); err != nil {
		return student.Student{}, err
	}
	createdUsr, err := insertUser(ctx, tx, usr)
	if err != nil {
		return student.Student{}, err
	}

	err = tx.GetContext(ctx, &s.ID,
		"INSERT INTO students (user_id, group_id, version) VALUES ($1, $2, 1) RETURNING id",
		createdUsr.ID, s.GroupID)
	if err != nil {
		if constraintViolated(err, "students_group_id_fkey") {
			return student.Student{}, school.ErrGroupNotFound
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	if err = tx.Commit(); err != nil {
		return student.Student{}, errors.Wrap(err, "committing transaction")
	}

	s.UserID = createdUsr.ID
	s.Version = 1
	s.User = createdUsr
	return s, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.SelectContext(ctx, &rows, studentQuery+" ORDER BY s.id")
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.Filter) ([]student.Student, error) {
	if filter.IsEmpty() {
		return []student.Student{}, nil
	}
	query, args, err := sqlx.In(studentQuery+" WHERE s.group_id IN (?) ORDER BY s.id", filter.GroupIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building student filter query")
	}

	var rows []studentRow
	err = repo.db.SelectContext(ctx, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "filtering students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id int) (student.Student, error) {
	var row studentRow
	err := repo.db.GetContext(ctx, &row, studentQuery+" WHERE s.id = $1", id)
	if err != nil {
		if isNoRows(err) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) GetStudentByUserID(ctx context.Context, userID int) (student.Student, error) {
	var row studentRow
	err := repo.db.GetContext(ctx, &row, studentQuery+" WHERE s.user_id = $1", userID)
	if err != nil {
		if isNoRows(err) {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	var id int
	err := repo.db.GetContext(ctx, &id,
		`UPDATE students SET group_id = $1, version = version + 1
		 WHERE id = $2 AND version = $3
		 RETURNING id`,
		s.GroupID, s.ID, s.Version)
	if err != nil {
		if isNoRows(err) {
			return student.Student{}, staleOrMissing(ctx, repo.db, "students", s.ID, student.ErrNotFound)
		}
		if constraintViolated(err, "students_group_id_fkey") {
			return student.Student{}, school.ErrGroupNotFound
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	return repo.GetStudentByID(ctx, id)
}

// DeleteStudent removes the profile and its Actor in one transaction. It is
// blocked while any Grade references the student.
func (repo *studentRepository) DeleteStudent(ctx context.Context, id, version int) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var dependents int
	err = tx.GetContext(ctx, &dependents, "SELECT COUNT(*) FROM grades WHERE student_id = $1", id)
	if err != nil {
		return errors.Wrap(err, "counting grades")
	}
	if dependents > 0 {
		return student.ErrStudentHasGrades
	}

	var userID int
	err = tx.GetContext(ctx, &userID,
		"DELETE FROM students WHERE id = $1 AND version = $2 RETURNING user_id", id, version)
	if err != nil {
		if isNoRows(err) {
			return staleOrMissing(ctx, tx, "students", id, student.ErrNotFound)
		}
		return errors.Wrap(err, "deleting student")
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", userID); err != nil {
		return errors.Wrap(err, "deleting student user")
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
