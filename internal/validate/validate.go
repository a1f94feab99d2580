// SPDX-License-Identifier: MIT

// Package validate accumulates field-level validation failures so a config
// check reports every problem at once instead of the first one.
package validate

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// LogLevels are the level names the logger accepts.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Error is one failed field.
type Error struct {
	Field   string
	Value   any
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// ValidationError is returned by Validator.Err. It unwraps to its Errors.
type ValidationError struct {
	errs []Error
}

// Errors returns the individual failures in the order they were found.
func (e ValidationError) Errors() []Error {
	return e.errs
}

func (e ValidationError) Error() string {
	msgs := make([]string, len(e.errs))
	for i, err := range e.errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e ValidationError) Unwrap() []error {
	out := make([]error, len(e.errs))
	for i, err := range e.errs {
		out[i] = err
	}
	return out
}

// Validator collects failures. The zero value is ready to use.
type Validator struct {
	errs []Error
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failure for field.
func (v *Validator) AddError(field, message string, value any) {
	v.errs = append(v.errs, Error{Field: field, Value: value, Message: message})
}

// IsValid reports whether nothing failed so far.
func (v *Validator) IsValid() bool {
	return len(v.errs) == 0
}

// Errors returns the failures recorded so far.
func (v *Validator) Errors() []Error {
	return v.errs
}

// Err returns nil, or a ValidationError holding a copy of the failures.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return ValidationError{errs: slices.Clone(v.errs)}
}

// NotEmpty rejects empty and whitespace-only strings.
func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "value cannot be empty", value)
	}
}

// OneOf rejects values outside allowed.
func (v *Validator) OneOf(field, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		v.AddError(field, fmt.Sprintf("value must be one of %v, got %q", allowed, value), value)
	}
}

// LogLevel accepts the LogLevels names in any case.
func (v *Validator) LogLevel(field, value string) {
	if !slices.Contains(LogLevels, strings.ToLower(strings.TrimSpace(value))) {
		v.AddError(field, "must be one of "+strings.Join(LogLevels, ", "), value)
	}
}

// PositiveDuration rejects d <= 0.
func (v *Validator) PositiveDuration(field string, d time.Duration) {
	if d <= 0 {
		v.AddError(field, fmt.Sprintf("duration must be positive, got %s", d), d)
	}
}

// FloatRange rejects values outside [minVal, maxVal].
func (v *Validator) FloatRange(field string, value, minVal, maxVal float64) {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("value must be between %g and %g, got %g", minVal, maxVal, value), value)
	}
}

// ListenAddr requires host:port; the host may be empty.
func (v *Validator) ListenAddr(field, addr string) {
	if addr == "" {
		v.AddError(field, "listen address cannot be empty", addr)
		return
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		v.AddError(field, fmt.Sprintf("invalid listen address: %v", err), addr)
	}
}

// HTTPURL requires an absolute http or https URL with a host and no userinfo.
func (v *Validator) HTTPURL(field, value string) {
	u, err := url.Parse(value)
	switch {
	case value == "":
		v.AddError(field, "URL cannot be empty", value)
	case err != nil:
		v.AddError(field, fmt.Sprintf("invalid URL: %v", err), value)
	case u.Scheme != "http" && u.Scheme != "https":
		v.AddError(field, fmt.Sprintf("unsupported URL scheme %q (http or https)", u.Scheme), value)
	case u.Host == "":
		v.AddError(field, "URL must have a host", value)
	case u.User != nil:
		v.AddError(field, "URL must not carry credentials", value)
	}
}

// LocalPath requires a relative path that stays inside its base directory.
// Empty paths pass; pair with NotEmpty for required fields.
func (v *Validator) LocalPath(field, p string) {
	switch {
	case p == "":
	case filepath.IsAbs(p):
		v.AddError(field, fmt.Sprintf("must be relative path, got absolute: %s", p), p)
	case !filepath.IsLocal(filepath.Clean(p)):
		v.AddError(field, fmt.Sprintf("escapes its base directory: %s", p), p)
	}
}

// Check records err, if any, against field.
func (v *Validator) Check(field string, value any, err error) {
	if err != nil {
		v.AddError(field, err.Error(), value)
	}
}

// AsValidationError reports whether err carries field-level failures.
func AsValidationError(err error) (ValidationError, bool) {
	var verr ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
