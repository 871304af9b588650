package pgdb

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func isNoRows(err error) bool {
	return errors.Cause(err) == sql.ErrNoRows
}

// constraintViolated reports whether err is a postgres unique or foreign-key
// violation on the named constraint. Sentinel mapping stays in the repository
// that owns the table.
func constraintViolated(err error, constraint string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok {
		return false
	}
	switch pqErr.Code {
	case pqUniqueViolation, pqForeignKeyViolation:
		return pqErr.Constraint == constraint
	}
	return false
}
