package core

import (
	"errors"
	"strings"
)

// FieldError ties a validation failure to the input field that caused it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e FieldError) Unwrap() error { return e.Err }

// ValidationErrors collects every failing field of one input.
type ValidationErrors []FieldError

// Add appends a failure for field. The message is taken from err.
func (v ValidationErrors) Add(field string, err error) ValidationErrors {
	return append(v, FieldError{Field: field, Message: err.Error(), Err: err})
}

// AddMessage appends a failure with a custom message.
func (v ValidationErrors) AddMessage(field, message string) ValidationErrors {
	return append(v, FieldError{Field: field, Message: message, Err: errors.New(message)})
}

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, fe := range v {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the underlying sentinels to errors.Is.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i := range v {
		errs[i] = v[i]
	}
	return errs
}

// OrNil returns nil for an empty collection so callers can return it as error.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
