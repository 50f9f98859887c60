package domain

import "errors"

var (
	// ErrNotFound indicates a well-formed identifier that matches no record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID indicates an identifier that is not syntactically valid.
	ErrInvalidID = errors.New("malformatted id")
	// ErrMissingToken is returned when a protected call carries no bearer token.
	ErrMissingToken = errors.New("token missing")
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("token invalid")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrForbidden indicates a verified identity without rights over the target.
	ErrForbidden = errors.New("not allowed to modify this note")
)

// ValidationError reports a missing, malformed, or conflicting field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err carries a ValidationError or ErrInvalidID.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidID)
}
