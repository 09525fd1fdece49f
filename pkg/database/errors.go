package database

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// UniqueViolation reports whether err carries a PostgreSQL unique_violation
// and, if so, returns the server's detail text, e.g.
// `Key (slug)=(kids-tee) already exists.`
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.Detail, true
	}
	return "", false
}
