package pgdb

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"
)

type teacherRepository struct {
	db *sqlx.DB
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *sqlx.DB) teacher.Repository {
	return &teacherRepository{db: db}
}

type teacherRow struct {
	ID      int `db:"id"`
	UserID  int `db:"user_id"`
	Version int `db:"version"`
	userRow `db:"usr"`
}

func (r teacherRow) toTeacher() teacher.Teacher {
	return teacher.Teacher{
		ID:      r.ID,
		UserID:  r.UserID,
		Version: r.Version,
		User:    r.userRow.toUser(),
	}
}

const teacherQuery = `
SELECT t.id, t.user_id, t.version,
       u.id AS "usr.id", u.username AS "usr.username", u.email AS "usr.email",
       u.role AS "usr.role", u.is_active AS "usr.is_active", u.password_hash AS "usr.password_hash",
       u.created_at AS "usr.created_at", u.updated_at AS "usr.updated_at", u.version AS "usr.version"
FROM teachers t
JOIN users u ON u.id = t.user_id`

// CreateTeacher creates the Actor and the Teacher profile in one transaction,
// re-checking username uniqueness inside it.
func (repo *teacherRepository) CreateTeacher(ctx context.Context, usr user.User, t teacher.Teacher) (teacher.Teacher, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err = checkUsernameUniqueness(ctx, tx, usr.Username, usr.Email); err != nil {
		return teacher.Teacher{}, err
	}
	createdUsr, err := insertUser(ctx, tx, usr)
	if err != nil {
		return teacher.Teacher{}, err
	}

	err = tx.GetContext(ctx, &t.ID,
		"INSERT INTO teachers (user_id, version) VALUES ($1, 1) RETURNING id", createdUsr.ID)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	if err = tx.Commit(); err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "committing transaction")
	}

	t.UserID = createdUsr.ID
	t.Version = 1
	t.User = createdUsr
	return t, nil
}

func (repo *teacherRepository) QueryAllTeachers(ctx context.Context) ([]teacher.Teacher, error) {
	var rows []teacherRow
	err := repo.db.SelectContext(ctx, &rows, teacherQuery+" ORDER BY t.id")
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.toTeacher())
	}
	return teachers, nil
}

func (repo *teacherRepository) GetTeacherByID(ctx context.Context, id int) (teacher.Teacher, error) {
	var row teacherRow
	err := repo.db.GetContext(ctx, &row, teacherQuery+" WHERE t.id = $1", id)
	if err != nil {
		if isNoRows(err) {
			return teacher.Teacher{}, teacher.ErrNotFound
		}
		return teacher.Teacher{}, errors.Wrap(err, "getting teacher")
	}
	return row.toTeacher(), nil
}

func (repo *teacherRepository) GetTeacherByUserID(ctx context.Context, userID int) (teacher.Teacher, error) {
	var row teacherRow
	err := repo.db.GetContext(ctx, &row, teacherQuery+" WHERE t.user_id = $1", userID)
	if err != nil {
		if isNoRows(err) {
			return teacher.Teacher{}, teacher.ErrNotFound
		}
		return teacher.Teacher{}, errors.Wrap(err, "getting teacher")
	}
	return row.toTeacher(), nil
}

// DeleteTeacher removes the profile and its Actor in one transaction. It is
// blocked while any Assignment references the teacher.
func (repo *teacherRepository) DeleteTeacher(ctx context.Context, id, version int) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var dependents int
	err = tx.GetContext(ctx, &dependents, "SELECT COUNT(*) FROM assignments WHERE teacher_id = $1", id)
	if err != nil {
		return errors.Wrap(err, "counting assignments")
	}
	if dependents > 0 {
		return teacher.ErrTeacherInUse
	}

	var userID int
	err = tx.GetContext(ctx, &userID,
		"DELETE FROM teachers WHERE id = $1 AND version = $2 RETURNING user_id", id, version)
	if err != nil {
		if isNoRows(err) {
			return staleOrMissing(ctx, tx, "teachers", id, teacher.ErrNotFound)
		}
		return errors.Wrap(err, "deleting teacher")
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM users WHERE id = $1", userID); err != nil {
		return errors.Wrap(err, "deleting teacher user")
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
