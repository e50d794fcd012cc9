package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound reports that the referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNoChanges is returned when an update carries no fields.
	ErrNoChanges = errors.New("no fields to update")
)

const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
