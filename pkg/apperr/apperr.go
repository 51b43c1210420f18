// Package apperr defines the error categories surfaced to the user by the
// finetune CLI. Every failure that reaches the command layer is one of these
// types, possibly wrapped with fmt.Errorf("...: %w", err).
package apperr

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a missing or invalid setting: a credential, a
// required identifier, or a flag value.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is not set", e.Setting)
	}
	return fmt.Sprintf("%s: %s", e.Setting, e.Reason)
}

// FileAccessError reports a local file that could not be opened or read.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot access %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

// ParseError reports a line of a JSONL file that is not valid JSON.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: invalid JSON: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: invalid JSON: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports a document that parsed but lacks an expected field.
// Source is a file path or a remote operation name; Line is zero for remote
// responses.
type SchemaError struct {
	Source string
	Line   int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing"
	}
	loc := e.Source
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Source, e.Line)
	}
	if loc == "" {
		return fmt.Sprintf("field %q %s", e.Field, reason)
	}
	return fmt.Sprintf("%s: field %q %s", loc, e.Field, reason)
}

// ExternalServiceError reports a remote API call that failed or was rejected.
// StatusCode is zero when no HTTP response was received.
type ExternalServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// Kind names the category of err, or "unknown" when err is not one of the
// types above.
func Kind(err error) string {
	var (
		cfgErr    *ConfigurationError
		fileErr   *FileAccessError
		parseErr  *ParseError
		schemaErr *SchemaError
		svcErr    *ExternalServiceError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &fileErr):
		return "file-access"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.As(err, &svcErr):
		return "external-service"
	default:
		return "unknown"
	}
}

// MissingID builds the ConfigurationError returned when an operation needs an
// identifier that was neither supplied nor produced earlier in the invocation.
func MissingID(setting, hint string) error {
	return &ConfigurationError{Setting: setting, Reason: "not set; " + hint}
}
