package siteconf

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when site is present but not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrMissingAdapter is returned when server output is requested without an adapter.
	ErrMissingAdapter = errors.New("adapter required for server output")
	// ErrDuplicateIntegration is returned when two integrations share a name.
	ErrDuplicateIntegration = errors.New("duplicate integration")
	// ErrUnknownOption is returned for keys outside the recognised set.
	ErrUnknownOption = errors.New("unknown option")
	// ErrMissingSite is returned when the sitemap integration is listed without a site.
	ErrMissingSite = errors.New("site required by sitemap integration")
	// ErrInvalidValue is returned when an option has the wrong type or an out of range value.
	ErrInvalidValue = errors.New("invalid value")
)

// ValidationError names the offending field and the rule it violates.
type ValidationError struct {
	Field  string
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Field, e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Err: err, Detail: fmt.Sprintf(format, args...)}
}
