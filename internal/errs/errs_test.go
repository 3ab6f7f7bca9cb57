package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_DefaultCodes(t *testing.T) {
	assert.Equal(t, "INVALID_ARGUMENT", NewInvalidError("bad", nil, nil, nil).Code)
	assert.Equal(t, "NOT_FOUND", NewNotFoundError("missing", nil, nil).Code)
	assert.Equal(t, "ALREADY_EXISTS", NewConflictError("dup", nil, nil).Code)
	assert.Equal(t, "INTERNAL", NewInternalError(errors.New("x")).Code)

	code := "USER_NOT_FOUND"
	assert.Equal(t, code, NewNotFoundError("missing", &code, nil).Code)
}

func TestError_MessageIncludesFieldErrors(t *testing.T) {
	err := NewInvalidError("Validation failed", nil, []FieldError{
		{Field: "email", Error: "is required"},
		{Field: "name", Error: "must not exceed 100 characters"},
	}, nil)

	assert.Equal(t, "Validation failed: email is required, name must not exceed 100 characters", err.Error())
}

func TestError_IsMatchesKind(t *testing.T) {
	cause := errors.New("driver said no")
	err := fmt.Errorf("update_user: %w", NewNotFoundError("User not found", nil, cause))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestError_WithMessageCopies(t *testing.T) {
	orig := NewConflictError("A User with this identifier already exists", nil, nil)
	changed := orig.WithMessage("A User with this Email already exists")

	require.NotSame(t, orig, changed)
	assert.Equal(t, "A User with this identifier already exists", orig.Message)
	assert.Equal(t, "A User with this Email already exists", changed.Message)
	assert.Equal(t, orig.Code, changed.Code)
}

func TestMakeUpperCaseWithUnderscores(t *testing.T) {
	assert.Equal(t, "ALREADY_EXISTS", MakeUpperCaseWithUnderscores("already exists"))
}
