package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/rosterd/rosterd/internal/store"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// translate maps driver errors onto the store sentinels. fkErr is what a
// foreign key violation means for the statement that produced err.
func translate(err error, fkErr error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", store.ErrDuplicate, pqErr.Constraint)
		case foreignKeyViolation:
			if fkErr != nil {
				return fmt.Errorf("%w: %s", fkErr, pqErr.Constraint)
			}
		}
	}

	return fmt.Errorf("db error: %w", err)
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
