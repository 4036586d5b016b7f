package contract

import "errors"

var (
	ErrEmptyInput        = errors.New("input is empty")
	ErrClassification    = errors.New("classification failed")
	ErrMissingParameter  = errors.New("required parameter is missing")
	ErrInvalidParameter  = errors.New("parameter is invalid")
	ErrInvalidExpression = errors.New("expression is not supported")
	ErrNotFound          = errors.New("no matching record")
	ErrPersistence       = errors.New("persistence failed")
	ErrAuth              = errors.New("authentication failed")

	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")
)

// Conversational reports whether err is answered in-band as a clarifying
// reply instead of escalating as a transport error.
func Conversational(err error) bool {
	return errors.Is(err, ErrMissingParameter) ||
		errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrInvalidExpression) ||
		errors.Is(err, ErrNotFound)
}
