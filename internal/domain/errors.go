package domain

import "errors"

var (
	ErrNotFound     = errors.New("task not found")
	ErrInvalidInput = errors.New("invalid input")
)

// InputError reports client-supplied data that failed validation.
// Msg is safe to return to the client as is.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// InvalidInput returns an *InputError with the given message.
func InvalidInput(msg string) error {
	return &InputError{Msg: msg}
}
