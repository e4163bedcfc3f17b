package console

import (
	"errors"
	"strconv"
)

// ExitError carries a non-zero exit status out of a command without it being
// treated as a failure of the command itself.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return "exit status " + strconv.Itoa(e.Code)
}

// Exit returns an error that makes the command finish with code.
// Exit(0) returns nil.
func Exit(code int) error {
	if code == 0 {
		return nil
	}
	return &ExitError{Code: code}
}

// ExitCode extracts the status from err. ok is false when err is neither nil
// nor an ExitError.
func ExitCode(err error) (code int, ok bool) {
	if err == nil {
		return 0, true
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
