package report

import "fmt"

// SerializationError reports a failure to produce an export document.
type SerializationError struct {
	Format string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to render %s report: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
