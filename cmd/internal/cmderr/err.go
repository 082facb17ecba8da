package cmderr

// CLIErr wraps an error that has already been explained to the user, so
// Execute knows not to print cobra's usage string on top of it.
// Used to determine whether to print usage message on error.
type CLIErr struct {
	Err error
}

func (e CLIErr) Error() string {
	return e.Err.Error()
}

// github.com/pkg/errors causer interface
func (e CLIErr) Cause() error {
	return e.Err
}

// github.com/pkg/errors Unwrap interface
func (e CLIErr) Unwrap() error {
	return e.Err
}
