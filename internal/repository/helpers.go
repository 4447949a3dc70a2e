package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	appErrors "github.com/MarivaldoDev/sistema-escolar/pkg/errors"
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// mapUniqueViolation converts a unique constraint violation into the typed
// duplicate-entry error so callers can react without parsing driver errors.
// The constraint is the authoritative guard against concurrent duplicate
// submissions; the application-level existence checks only give friendlier
// messages on the happy path.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return appErrors.Wrap(err, appErrors.ErrDuplicateEntry.Code, appErrors.ErrDuplicateEntry.Status, appErrors.ErrDuplicateEntry.Message)
	}
	return err
}

// orderClause resolves a user-supplied sort column against a whitelist.
func orderClause(sortBy, sortOrder string, allowed map[string]string, fallback string) string {
	column, ok := allowed[sortBy]
	if !ok {
		return fallback
	}
	direction := "ASC"
	if sortOrder == "desc" || sortOrder == "DESC" {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}

// requireRowAffected turns a zero-row update into sql.ErrNoRows.
func requireRowAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
