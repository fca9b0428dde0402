package export

import (
	"errors"
	"fmt"
)

// NoDataMessage is shown when the filters leave nothing to export.
const NoDataMessage = "No time entries found for the selected date range."

// ErrNoData is returned when no entry survives the export filters.
var ErrNoData = errors.New("no time entries found for the selected date range")

// FetchError wraps a failure of the entry source or the directory.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
