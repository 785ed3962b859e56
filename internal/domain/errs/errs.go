// Package errs holds the error categories shared by every service. Services
// wrap one of these sentinels so transports can map them without knowing the
// service-specific error.
package errs

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Wrap returns an error that matches both the category and its own message.
func Wrap(category error, message string) error {
	return &categorized{category: category, message: message}
}

type categorized struct {
	category error
	message  string
}

func (e *categorized) Error() string {
	return e.category.Error() + ": " + e.message
}

func (e *categorized) Unwrap() error {
	return e.category
}

// Message returns the text passed to Wrap, or the error text for other errors.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var c *categorized
	if errors.As(err, &c) {
		return c.message
	}
	return err.Error()
}
