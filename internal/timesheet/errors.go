package timesheet

import "errors"

var (
	ErrForbidden       = errors.New("permission denied")
	ErrEditsDisabled   = errors.New("editing entries is disabled by an administrator")
	ErrOpenEntry       = errors.New("entry is still in progress")
	ErrAlreadyRunning  = errors.New("an entry is already in progress; stop it first")
	ErrNoOpenEntry     = errors.New("no entry in progress")
	ErrUnknownUser     = errors.New("unknown user")
	ErrUnknownActivity = errors.New("unknown activity")
	ErrActivityExists  = errors.New("activity already exists")
)
