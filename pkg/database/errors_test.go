package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: "Key (slug)=(kids-tee) already exists.",
	}

	detail, ok := UniqueViolation(fmt.Errorf("insert product: %w", pgErr))
	assert.True(t, ok)
	assert.Equal(t, "Key (slug)=(kids-tee) already exists.", detail)

	_, ok = UniqueViolation(&pgconn.PgError{Code: pgerrcode.NotNullViolation})
	assert.False(t, ok)

	_, ok = UniqueViolation(errors.New("connection reset"))
	assert.False(t, ok)

	_, ok = UniqueViolation(nil)
	assert.False(t, ok)
}
