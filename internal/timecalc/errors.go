package timecalc

import "fmt"

// InvalidInputError reports a malformed date, time or timezone identifier.
// It signals a caller bug: validated input never produces one.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func invalid(field, value, reason string) error {
	return &InvalidInputError{Field: field, Value: value, Reason: reason}
}
