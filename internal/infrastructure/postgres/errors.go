package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
)

// mapError translates driver errors into apperr kinds. notFound is the
// message used when no row matched.
func mapError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NewNotFound(notFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return apperr.NewConflict("email is already registered", err)
		case pgerrcode.ForeignKeyViolation:
			return &apperr.Error{Kind: apperr.Validation, Message: "owner does not exist", Err: err}
		case pgerrcode.CheckViolation:
			return &apperr.Error{Kind: apperr.Validation, Message: "constraint " + pgErr.ConstraintName + " violated", Err: err}
		}
	}
	return err
}

// validID reports whether id can be compared against a UUID column without a
// cast error. Malformed ids are treated as "no such row" by callers.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
