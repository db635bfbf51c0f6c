package errs

import (
	"context"
	"errors"
)

// Message turns an error into the text shown on a view's error state.
// It returns "" for a nil error.
func Message(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, ErrNotFound):
		return "The requested user does not exist anymore."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	case errors.Is(err, ErrTransport):
		return "There are problems with the request. Try again later!"
	default:
		return "Something went wrong. Try again later!"
	}
}
