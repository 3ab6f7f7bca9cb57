package errs

func newError(kind Kind, message string, code *string, cause error) *Error {
	formattedCode := kind.defaultCode()
	if code != nil {
		formattedCode = *code
	}

	return &Error{
		Kind:    kind,
		Code:    formattedCode,
		Message: message,
		cause:   cause,
	}
}

// NewInvalidError creates an invalid-argument Error.
//
// code is optional; when nil it defaults to "INVALID_ARGUMENT".
// fieldErrors carries per-field details for validation failures.
func NewInvalidError(message string, code *string, fieldErrors []FieldError, cause error) *Error {
	e := newError(KindInvalid, message, code, cause)
	e.Errors = fieldErrors
	return e
}

// NewNotFoundError creates a not-found Error.
func NewNotFoundError(message string, code *string, cause error) *Error {
	return newError(KindNotFound, message, code, cause)
}

// NewConflictError creates an Error for unique-constraint style clashes.
func NewConflictError(message string, code *string, cause error) *Error {
	return newError(KindConflict, message, code, cause)
}

// NewInternalError wraps an unexpected failure. The generic message is
// kept; the cause stays reachable through Unwrap for logging.
func NewInternalError(cause error) *Error {
	return newError(KindInternal, "An internal error occurred", nil, cause)
}
