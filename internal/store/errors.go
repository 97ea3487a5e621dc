package store

import (
	"database/sql"
	"errors"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrNoTenant      = errors.New("operation has no tenant")
	ErrInvalidInput  = errors.New("invalid input")
)

// ErrorMapper translates driver errors into the sentinels above.
type ErrorMapper func(error) error

// WrapError maps sql.ErrNoRows to ErrNotFound and hands other errors to m.
func WrapError(err error, m ErrorMapper) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if m != nil {
		return m(err)
	}
	return err
}
