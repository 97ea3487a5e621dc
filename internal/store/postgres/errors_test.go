package postgres

import (
	"errors"
	"testing"

	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

// TestPurpose: Validates that PostgreSQL error codes are translated into store sentinels.
// Scope: Unit Test
// Expected: Unique and foreign key violations map to their sentinels; other errors pass through wrapped.
// Test Case ID: PG-01
func TestMapError(t *testing.T) {
	plain := errors.New("plain")
	assert.Same(t, plain, MapError(plain))

	dup := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}
	assert.ErrorIs(t, MapError(dup), store.ErrAlreadyExists)

	fk := &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, Message: "violates foreign key"}
	assert.ErrorIs(t, MapError(fk), store.ErrInvalidInput)

	other := &pgconn.PgError{Code: pgerrcode.DiskFull, Message: "disk full"}
	mapped := MapError(other)
	assert.ErrorIs(t, mapped, other)
	assert.Contains(t, mapped.Error(), pgerrcode.DiskFull)
}
