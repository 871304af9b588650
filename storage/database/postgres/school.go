package pgdb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

// checkNameCodeUniqueness covers the three catalog tables, which share the
// name+code uniqueness rule.
func checkNameCodeUniqueness(
	ctx context.Context, q sqlx.QueryerContext, table, name, code string,
	exclIDs []int, nameErr, codeErr error,
) error {
	query, args, err := sqlx.In(
		"SELECT name, code FROM "+table+" WHERE (name = ? OR code = ?) AND id NOT IN (?)",
		name, code, append(exclIDs, 0),
	)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	rows, err := q.QueryxContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return errors.Wrapf(err, "checking %s uniqueness", table)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var rowName, rowCode string
		if err = rows.Scan(&rowName, &rowCode); err != nil {
			return errors.Wrap(err, "scanning uniqueness row")
		}
		if rowName == name {
			return nameErr
		}
		if rowCode == code {
			return codeErr
		}
	}
	return errors.Wrapf(rows.Err(), "checking %s uniqueness", table)
}

// versionedDelete runs a dependency-guarded, version-matched DELETE in one
// transaction. dependentQuery counts live referencing rows.
func (repo *schoolRepository) versionedDelete(
	ctx context.Context, table, dependentQuery string, id, version int,
	notFoundErr, inUseErr error,
) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var dependents int
	if err = tx.GetContext(ctx, &dependents, dependentQuery, id); err != nil {
		return errors.Wrap(err, "counting dependents")
	}
	if dependents > 0 {
		return inUseErr
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1 AND version = $2", id, version)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading rows affected")
	}
	if n == 0 {
		return staleOrMissing(ctx, tx, table, id, notFoundErr)
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// Groups

type groupRow struct {
	ID      int    `db:"id"`
	Name    string `db:"name"`
	Code    string `db:"code"`
	Version int    `db:"version"`
}

func (r groupRow) toGroup() school.Group {
	return school.Group{ID: r.ID, Name: r.Name, Code: r.Code, Version: r.Version}
}

func (repo *schoolRepository) CheckGroupUniqueness(ctx context.Context, name, code string, excluded ...school.Group) error {
	exclIDs := make([]int, 0, len(excluded))
	for _, g := range excluded {
		exclIDs = append(exclIDs, g.ID)
	}
	return checkNameCodeUniqueness(ctx, repo.db, "groups", name, code, exclIDs,
		school.ErrGroupNameExists, school.ErrGroupCodeExists)
}

func (repo *schoolRepository) CreateGroup(ctx context.Context, g school.Group) (school.Group, error) {
	var row groupRow
	err := repo.db.GetContext(ctx, &row,
		"INSERT INTO groups (name, code, version) VALUES ($1, $2, 1) RETURNING id, name, code, version",
		g.Name, g.Code)
	if err != nil {
		switch {
		case constraintViolated(err, "groups_name_key"):
			return school.Group{}, school.ErrGroupNameExists
		case constraintViolated(err, "groups_code_key"):
			return school.Group{}, school.ErrGroupCodeExists
		}
		return school.Group{}, errors.Wrap(err, "inserting group")
	}
	return row.toGroup(), nil
}

func (repo *schoolRepository) QueryAllGroups(ctx context.Context) ([]school.Group, error) {
	var rows []groupRow
	err := repo.db.SelectContext(ctx, &rows, "SELECT id, name, code, version FROM groups ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	groups := make([]school.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, row.toGroup())
	}
	return groups, nil
}

func (repo *schoolRepository) GetGroupByID(ctx context.Context, id int) (school.Group, error) {
	var row groupRow
	err := repo.db.GetContext(ctx, &row, "SELECT id, name, code, version FROM groups WHERE id = $1", id)
	if err != nil {
		if isNoRows(err) {
			return school.Group{}, school.ErrGroupNotFound
		}
		return school.Group{}, errors.Wrap(err, "getting group")
	}
	return row.toGroup(), nil
}

func (repo *schoolRepository) UpdateGroup(ctx context.Context, g school.Group) (school.Group, error) {
	var row groupRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE groups SET name = $1, code = $2, version = version + 1
		 WHERE id = $3 AND version = $4
		 RETURNING id, name, code, version`,
		g.Name, g.Code, g.ID, g.Version)
	if err != nil {
		if isNoRows(err) {
			return school.Group{}, staleOrMissing(ctx, repo.db, "groups", g.ID, school.ErrGroupNotFound)
		}
		switch {
		case constraintViolated(err, "groups_name_key"):
			return school.Group{}, school.ErrGroupNameExists
		case constraintViolated(err, "groups_code_key"):
			return school.Group{}, school.ErrGroupCodeExists
		}
		return school.Group{}, errors.Wrap(err, "updating group")
	}
	return row.toGroup(), nil
}

func (repo *schoolRepository) DeleteGroup(ctx context.Context, id, version int) error {
	return repo.versionedDelete(ctx, "groups",
		`SELECT (SELECT COUNT(*) FROM students WHERE group_id = $1)
		      + (SELECT COUNT(*) FROM assignments WHERE group_id = $1)`,
		id, version, school.ErrGroupNotFound, school.ErrGroupInUse)
}

// Subjects

func (repo *schoolRepository) CheckSubjectUniqueness(ctx context.Context, name, code string, excluded ...school.Subject) error {
	exclIDs := make([]int, 0, len(excluded))
	for _, s := range excluded {
		exclIDs = append(exclIDs, s.ID)
	}
	return checkNameCodeUniqueness(ctx, repo.db, "subjects", name, code, exclIDs,
		school.ErrSubjectNameExists, school.ErrSubjectCodeExists)
}

func (repo *schoolRepository) CreateSubject(ctx context.Context, s school.Subject) (school.Subject, error) {
	var row groupRow
	err := repo.db.GetContext(ctx, &row,
		"INSERT INTO subjects (name, code, version) VALUES ($1, $2, 1) RETURNING id, name, code, version",
		s.Name, s.Code)
	if err != nil {
		switch {
		case constraintViolated(err, "subjects_name_key"):
			return school.Subject{}, school.ErrSubjectNameExists
		case constraintViolated(err, "subjects_code_key"):
			return school.Subject{}, school.ErrSubjectCodeExists
		}
		return school.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return school.Subject{ID: row.ID, Name: row.Name, Code: row.Code, Version: row.Version}, nil
}

func (repo *schoolRepository) QueryAllSubjects(ctx context.Context) ([]school.Subject, error) {
	var rows []groupRow
	err := repo.db.SelectContext(ctx, &rows, "SELECT id, name, code, version FROM subjects ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]school.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, school.Subject{ID: row.ID, Name: row.Name, Code: row.Code, Version: row.Version})
	}
	return subjects, nil
}

func (repo *schoolRepository) GetSubjectByID(ctx context.Context, id int) (school.Subject, error) {
	var row groupRow
	err := repo.db.GetContext(ctx, &row, "SELECT id, name, code, version FROM subjects WHERE id = $1", id)
	if err != nil {
		if isNoRows(err) {
			return school.Subject{}, school.ErrSubjectNotFound
		}
		return school.Subject{}, errors.Wrap(err, "getting subject")
	}
	return school.Subject{ID: row.ID, Name: row.Name, Code: row.Code, Version: row.Version}, nil
}

func (repo *schoolRepository) UpdateSubject(ctx context.Context, s school.Subject) (school.Subject, error) {
	var row groupRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE subjects SET name = $1, code = $2, version = version + 1
		 WHERE id = $3 AND version = $4
		 RETURNING id, name, code, version`,
		s.Name, s.Code, s.ID, s.Version)
	if err != nil {
		if isNoRows(err) {
			return school.Subject{}, staleOrMissing(ctx, repo.db, "subjects", s.ID, school.ErrSubjectNotFound)
		}
		switch {
		case constraintViolated(err, "subjects_name_key"):
			return school.Subject{}, school.ErrSubjectNameExists
		case constraintViolated(err, "subjects_code_key"):
			return school.Subject{}, school.ErrSubjectCodeExists
		}
		return school.Subject{}, errors.Wrap(err, "updating subject")
	}
	return school.Subject{ID: row.ID, Name: row.Name, Code: row.Code, Version: row.Version}, nil
}

func (repo *schoolRepository) DeleteSubject(ctx context.Context, id, version int) error {
	return repo.versionedDelete(ctx, "subjects",
		"SELECT COUNT(*) FROM assignments WHERE subject_id = $1",
		id, version, school.ErrSubjectNotFound, school.ErrSubjectInUse)
}

// Semesters

type semesterRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"code"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	Version   int       `db:"version"`
}

func (r semesterRow) toSemester() school.Semester {
	return school.Semester{
		ID:        r.ID,
		Name:      r.Name,
		Code:      r.Code,
		StartDate: r.StartDate.UTC(),
		EndDate:   r.EndDate.UTC(),
		Version:   r.Version,
	}
}

const semesterColumns = "id, name, code, start_date, end_date, version"

func (repo *schoolRepository) CheckSemesterUniqueness(ctx context.Context, name, code string, excluded ...school.Semester) error {
	exclIDs := make([]int, 0, len(excluded))
	for _, s := range excluded {
		exclIDs = append(exclIDs, s.ID)
	}
	return checkNameCodeUniqueness(ctx, repo.db, "semesters", name, code, exclIDs,
		school.ErrSemesterNameExists, school.ErrSemesterCodeExists)
}

func (repo *schoolRepository) CreateSemester(ctx context.Context, s school.Semester) (school.Semester, error) {
	var row semesterRow
	err := repo.db.GetContext(ctx, &row,
		`INSERT INTO semesters (name, code, start_date, end_date, version)
		 VALUES ($1, $2, $3, $4, 1)
		 RETURNING `+semesterColumns,
		s.Name, s.Code, s.StartDate, s.EndDate)
	if err != nil {
		switch {
		case constraintViolated(err, "semesters_name_key"):
			return school.Semester{}, school.ErrSemesterNameExists
		case constraintViolated(err, "semesters_code_key"):
			return school.Semester{}, school.ErrSemesterCodeExists
		}
		return school.Semester{}, errors.Wrap(err, "inserting semester")
	}
	return row.toSemester(), nil
}

func (repo *schoolRepository) QueryAllSemesters(ctx context.Context) ([]school.Semester, error) {
	var rows []semesterRow
	err := repo.db.SelectContext(ctx, &rows, "SELECT "+semesterColumns+" FROM semesters ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "querying semesters")
	}
	semesters := make([]school.Semester, 0, len(rows))
	for _, row := range rows {
		semesters = append(semesters, row.toSemester())
	}
	return semesters, nil
}

func (repo *schoolRepository) GetSemesterByID(ctx context.Context, id int) (school.Semester, error) {
	var row semesterRow
	err := repo.db.GetContext(ctx, &row, "SELECT "+semesterColumns+" FROM semesters WHERE id = $1", id)
	if err != nil {
		if isNoRows(err) {
			return school.Semester{}, school.ErrSemesterNotFound
		}
		return school.Semester{}, errors.Wrap(err, "getting semester")
	}
	return row.toSemester(), nil
}

func (repo *schoolRepository) UpdateSemester(ctx context.Context, s school.Semester) (school.Semester, error) {
	var row semesterRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE semesters SET name = $1, code = $2, start_date = $3, end_date = $4, version = version + 1
		 WHERE id = $5 AND version = $6
		 RETURNING `+semesterColumns,
		s.Name, s.Code, s.StartDate, s.EndDate, s.ID, s.Version)
	if err != nil {
		if isNoRows(err) {
			return school.Semester{}, staleOrMissing(ctx, repo.db, "semesters", s.ID, school.ErrSemesterNotFound)
		}
		switch {
		case constraintViolated(err, "semesters_name_key"):
			return school.Semester{}, school.ErrSemesterNameExists
		case constraintViolated(err, "semesters_code_key"):
			return school.Semester{}, school.ErrSemesterCodeExists
		}
		return school.Semester{}, errors.Wrap(err, "updating semester")
	}
	return row.toSemester(), nil
}

func (repo *schoolRepository) DeleteSemester(ctx context.Context, id, version int) error {
	return repo.versionedDelete(ctx, "semesters",
		"SELECT COUNT(*) FROM assignments WHERE semester_id = $1",
		id, version, school.ErrSemesterNotFound, school.ErrSemesterInUse)
}
