package main

// Exit codes.
const (
	ExitSuccess    = 0 // Success
	ExitError      = 1 // General error (invalid arguments, runtime failure)
	ExitValidation = 2 // At least one field or document failed validation
)

// exitError carries an exit code through cobra's error return.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func validationFailed(msg string) error {
	return &exitError{code: ExitValidation, msg: msg}
}
