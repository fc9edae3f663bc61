package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SQLSTATE for a dangling reference.
const pgForeignKeyViolation = "23503"

// IsForeignKeyViolation reports whether err was caused by a dangling reference.
// GORM translates it when TranslateError is on; the raw pgconn error is
// checked too for statements run without translation.
func IsForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
