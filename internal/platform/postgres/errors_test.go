package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/wordbridge/wordbridge-api/internal/store"
)

func pgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    error
		expected error
	}{
		{name: "nil error", input: nil, expected: nil},
		{name: "no rows", input: sql.ErrNoRows, expected: store.ErrNotFound},
		{name: "wrapped no rows", input: fmt.Errorf("query failed: %w", sql.ErrNoRows), expected: store.ErrNotFound},
		{name: "unique violation", input: pgError(uniqueViolationCode, "recommendations_pkey"), expected: store.ErrDuplicate},
		{name: "foreign key violation", input: pgError(foreignKeyViolationCode, "uploads_student_id_fkey"), expected: store.ErrInvalidEntity},
		{name: "check violation", input: pgError(checkViolationCode, "uploads_status_check"), expected: store.ErrInvalidEntity},
		{name: "not null violation", input: pgError(notNullViolationCode, ""), expected: store.ErrInvalidEntity},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mapped := MapError(tc.input)
			if tc.expected == nil {
				assert.NoError(t, mapped)
				return
			}
			assert.ErrorIs(t, mapped, tc.expected)
		})
	}
}

func TestMapError_PassesThroughUnknownErrors(t *testing.T) {
	t.Parallel()

	original := errors.New("connection refused")
	assert.Equal(t, original, MapError(original))
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(store.ErrUploadNotFound))
	assert.True(t, IsNotFoundError(MapError(sql.ErrNoRows)))
	assert.False(t, IsNotFoundError(errors.New("other failure")))
	assert.False(t, IsNotFoundError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(pgError(uniqueViolationCode, "")))
	assert.False(t, IsUniqueViolation(pgError(foreignKeyViolationCode, "")))
	assert.False(t, IsUniqueViolation(errors.New("not a pg error")))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsForeignKeyViolation(pgError(foreignKeyViolationCode, "")))
	assert.False(t, IsForeignKeyViolation(pgError(uniqueViolationCode, "")))
}
