package ledger

import "fmt"

// ValidationError reports rejected user input. Err is one of the core
// sentinels, so errors.Is(err, core.ErrInvalidAmount) works through it.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
