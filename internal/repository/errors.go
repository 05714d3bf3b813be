package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrMissingReference reports a foreign key pointing at a missing row.
	ErrMissingReference = errors.New("referenced record missing")
	// ErrNoChange reports a conditional update that matched no row.
	ErrNoChange = errors.New("no row matched")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// mapWriteError wraps err with op and translates constraint violations into
// the sentinel errors above.
func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pqErr.Constraint)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrMissingReference, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// expectOneRow turns an update result touching no rows into ErrNoChange.
func expectOneRow(op string, affected int64) error {
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNoChange)
	}
	return nil
}
