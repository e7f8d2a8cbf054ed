package render

import (
	"errors"
	"fmt"
)

// ErrMissingRequiredField means a mandatory field is absent from the row.
// The row is skipped, the batch goes on.
var ErrMissingRequiredField = errors.New("missing required field")

// ErrUnparsableValue means a value could not be coerced to the shape its
// field expects. It never leaves the renderer: the field is simply not drawn.
var ErrUnparsableValue = errors.New("unparsable value")

// ErrTemplate means the template asset could not be read or imported.
var ErrTemplate = errors.New("template unreadable")

// FieldError ties a row-level failure to a field.
type FieldError struct {
	Row   int
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d: field %q: %v", e.Row, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
