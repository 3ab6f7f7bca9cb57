package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/deppfellow/crud-demo/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func asAppError(t *testing.T, err error) *errs.Error {
	t.Helper()
	var appErr *errs.Error
	require.True(t, errors.As(err, &appErr), "expected *errs.Error, got %T", err)
	return appErr
}

func TestHandleError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "users_email_key"`,
		TableName:      "users",
		ConstraintName: "users_email_key",
	}

	err := HandleError(fmt.Errorf("insert: %w", pgErr))
	appErr := asAppError(t, err)

	assert.Equal(t, errs.KindConflict, appErr.Kind)
	assert.Equal(t, "USER_ALREADY_EXISTS", appErr.Code)
	assert.Equal(t, "A User with this Email already exists", appErr.Message)
	assert.True(t, errors.Is(err, pgErr))

	var sqlErr *Error
	require.ErrorAs(t, err, &sqlErr)
	assert.Equal(t, UniqueViolation, sqlErr.Code)
	assert.Equal(t, "users_email_key", sqlErr.ConstraintName)
}

func TestHandleError_ForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:       "23503",
		TableName:  "posts",
		ColumnName: "author_id",
	}

	appErr := asAppError(t, HandleError(pgErr))

	assert.Equal(t, errs.KindInvalid, appErr.Kind)
	assert.Equal(t, "POST_NOT_FOUND", appErr.Code)
	assert.Equal(t, "The referenced Author does not exist", appErr.Message)
}

func TestHandleError_NotNullViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:       "23502",
		TableName:  "users",
		ColumnName: "email",
	}

	appErr := asAppError(t, HandleError(pgErr))

	assert.Equal(t, errs.KindInvalid, appErr.Kind)
	assert.Equal(t, "USER_REQUIRED", appErr.Code)
	assert.Equal(t, "The Email is required", appErr.Message)
	require.Len(t, appErr.Errors, 1)
	assert.Equal(t, errs.FieldError{Field: "email", Error: "is required"}, appErr.Errors[0])
}

func TestHandleError_OtherPgErrorIsInternal(t *testing.T) {
	appErr := asAppError(t, HandleError(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"}))
	assert.Equal(t, errs.KindInternal, appErr.Kind)

	var sqlErr *Error
	require.ErrorAs(t, appErr, &sqlErr)
	assert.Equal(t, UndefinedTable, sqlErr.Code)
}

func TestHandleError_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"gorm", gorm.ErrRecordNotFound, "Resource not found"},
		{"pgx", pgx.ErrNoRows, "Resource not found"},
		{"database/sql", sql.ErrNoRows, "Resource not found"},
		{"wrapped", fmt.Errorf("loading users: %w", gorm.ErrRecordNotFound), "Resource not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := asAppError(t, HandleError(tt.err))
			assert.Equal(t, errs.KindNotFound, appErr.Kind)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestHandleError_GormTranslatedErrors(t *testing.T) {
	assert.Equal(t, errs.KindConflict, errs.KindOf(HandleError(gorm.ErrDuplicatedKey)))
	assert.Equal(t, errs.KindInvalid, errs.KindOf(HandleError(gorm.ErrForeignKeyViolated)))
}

func TestHandleError_PassThrough(t *testing.T) {
	assert.NoError(t, HandleError(nil))

	orig := errs.NewNotFoundError("User not found", nil, nil)
	assert.Same(t, orig, HandleError(orig))

	appErr := asAppError(t, HandleError(errors.New("connection reset")))
	assert.Equal(t, errs.KindInternal, appErr.Kind)
	assert.EqualError(t, errors.Unwrap(appErr), "connection reset")
}

func TestHandleError_UniqueViolationUnknownColumn(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		TableName:      "profiles",
		ConstraintName: "profiles_pkey",
	}

	appErr := asAppError(t, HandleError(pgErr))

	assert.Equal(t, "PROFILE_ALREADY_EXISTS", appErr.Code)
	assert.Equal(t, "A Profile with this identifier already exists", appErr.Message)
}

func TestGenerateErrorCode(t *testing.T) {
	assert.Equal(t, "USER_ALREADY_EXISTS", generateErrorCode("users", UniqueViolation))
	assert.Equal(t, "POST_NOT_FOUND", generateErrorCode("posts", ForeignKeyViolation))
	assert.Equal(t, "RECORD_INVALID", generateErrorCode("", CheckViolation))
	assert.Equal(t, "PROFILE_ERROR", generateErrorCode("profiles", UndefinedTable))
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.Equal(t, "email", extractColumnForUniqueViolation("unique_users_email"))
	assert.Equal(t, "email", extractColumnForUniqueViolation("users_email_key"))
	assert.Equal(t, "id", extractColumnForUniqueViolation("profiles_user_id_key"))
	assert.Equal(t, "", extractColumnForUniqueViolation("users_pkey"))
	assert.Equal(t, "", extractColumnForUniqueViolation(""))
}

func TestMapSeverity(t *testing.T) {
	assert.Equal(t, SeverityFatal, MapSeverity("FATAL"))
	assert.Equal(t, SeverityError, MapSeverity("something-else"))
}
