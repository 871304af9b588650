package pgdb

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           int       `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	Version      int       `db:"version"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		Role:         user.Role(r.Role),
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		Version:      r.Version,
	}
}

const userColumns = "id, username, email, role, is_active, password_hash, created_at, updated_at, version"

func checkUsernameUniqueness(ctx context.Context, q sqlx.QueryerContext, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]int, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}
	query, args, err := sqlx.In(
		"SELECT username, email FROM users WHERE (username = ? OR email = ?) AND id NOT IN (?)",
		username, email, append(exclIDs, 0), // non-empty for IN expansion; 0 is never a live PK
	)
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}

	rows, err := q.QueryxContext(ctx, sqlx.Rebind(sqlx.DOLLAR, query), args...)
	if err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var uname, mail string
		if err = rows.Scan(&uname, &mail); err != nil {
			return errors.Wrap(err, "scanning uniqueness row")
		}
		if uname == username {
			return user.ErrUsernameExists
		}
		if mail == email {
			return user.ErrEmailExists
		}
	}
	return errors.Wrap(rows.Err(), "checking username uniqueness")
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	return checkUsernameUniqueness(ctx, repo.db, username, email, excludedUsers...)
}

func insertUser(ctx context.Context, q sqlx.QueryerContext, usr user.User) (user.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, q, &row,
		`INSERT INTO users (username, email, role, is_active, password_hash, created_at, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		 RETURNING `+userColumns,
		usr.Username, usr.Email, usr.Role.String(), usr.IsActive, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		switch {
		case constraintViolated(err, "users_username_key"):
			return user.User{}, user.ErrUsernameExists
		case constraintViolated(err, "users_email_key"):
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	return insertUser(ctx, repo.db, usr)
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row,
		"SELECT "+userColumns+" FROM users WHERE username = $1 OR email = $1", username)
	if err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	var row userRow
	err := repo.db.GetContext(ctx, &row,
		`UPDATE users
		 SET email = $1, is_active = $2, password_hash = $3, updated_at = $4, version = version + 1
		 WHERE id = $5 AND version = $6
		 RETURNING `+userColumns,
		usr.Email, usr.IsActive, usr.PasswordHash, usr.UpdatedAt, usr.ID, usr.Version,
	)
	if err != nil {
		if isNoRows(err) {
			return user.User{}, staleOrMissing(ctx, repo.db, "users", usr.ID, user.ErrNotFound)
		}
		if constraintViolated(err, "users_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return row.toUser(), nil
}

// staleOrMissing disambiguates a zero-row versioned write. The row either
// vanished (notFoundErr) or lost the version race (core.ErrStaleVersion).
func staleOrMissing(ctx context.Context, q sqlx.QueryerContext, table string, id int, notFoundErr error) error {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, "SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = $1)", id)
	if err != nil {
		return errors.Wrap(err, "checking row existence")
	}
	if !exists {
		return notFoundErr
	}
	return core.ErrStaleVersion
}
