package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"stockroom/internal/core/apperror"
)

// PostgreSQL error codes handled by the repositories.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeDiskFull            = "53100"
	codeProgramLimit        = "54000"
)

// pgCode returns the SQLSTATE of err, or "".
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// MapError converts storage errors with a domain meaning into AppErrors.
// Other errors are returned unchanged.
func MapError(err error, entity string, size int64) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		return apperror.NewDuplicate(entity, pgErr.ConstraintName, "").WithCause(err)
	case codeForeignKeyViolation:
		return apperror.NewConflict(entity + " is referenced by other records").WithCause(err)
	case codeDiskFull, codeProgramLimit:
		return apperror.NewStorageQuotaExceeded(size, 0).WithCause(err)
	}
	return err
}
