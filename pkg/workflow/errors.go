package workflow

import "errors"

var (
	// ErrInvalidRange is returned when LRV is not strictly below URV.
	ErrInvalidRange = errors.New("lower range value (LRV) must be less than upper range value (URV)")
	// ErrInvalidTolerance is returned for a negative or unknown tolerance.
	ErrInvalidTolerance = errors.New("invalid tolerance")
	// ErrNonNumericInput is returned when a field does not parse as a finite number.
	ErrNonNumericInput = errors.New("value is not a number")
	// ErrIncompleteMeasurements is returned unless all five readings are present.
	ErrIncompleteMeasurements = errors.New("all five measured values are required")
	// ErrNoDatasheet is returned when measurements arrive before a datasheet.
	ErrNoDatasheet = errors.New("no instrument datasheet has been submitted")
)

// ValidationError names the input field that failed validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}
